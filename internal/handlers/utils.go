package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/amaumene/gotpb/pkg/tpb/categories"
	"github.com/amaumene/gotpb/pkg/tpb/models"
	"github.com/gin-gonic/gin"
)

// stripJSONExtension removes .json extension from a parameter if present
func stripJSONExtension(c *gin.Context, paramName string) {
	value := c.Param(paramName)
	if strings.HasSuffix(value, ".json") {
		for i, param := range c.Params {
			if param.Key == paramName {
				c.Params[i].Value = strings.TrimSuffix(value, ".json")
				break
			}
		}
	}
}

// parseCategory accepts "", "all" or a known category id.
func parseCategory(table *categories.Table, value string) (categories.Category, error) {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "all") {
		return categories.Unknown, nil
	}
	id, err := strconv.Atoi(value)
	if err != nil {
		return categories.Unknown, fmt.Errorf("category must be a numeric id, got %q", value)
	}
	category := table.LookupByID(id)
	if !category.IsKnown() {
		return categories.Unknown, fmt.Errorf("unknown category %d", id)
	}
	return category, nil
}

func parseSort(field, order string) (models.Sort, error) {
	f, err := models.ParseSortField(field)
	if err != nil {
		return models.Sort{}, err
	}
	switch strings.ToLower(strings.TrimSpace(order)) {
	case "", "desc":
		return models.Sort{Field: f}, nil
	case "asc":
		return models.Sort{Field: f, Ascending: true}, nil
	default:
		return models.Sort{}, fmt.Errorf("order must be asc or desc, got %q", order)
	}
}

func parseNonNegative(name, value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", name, value)
	}
	return n, nil
}

func parseConfidence(value string) (float64, error) {
	if value == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f < 0 || f > 100 {
		return 0, fmt.Errorf("min_confidence must be between 0 and 100, got %q", value)
	}
	return f, nil
}

func parseID(value string) (uint64, error) {
	id, err := strconv.ParseUint(value, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("torrent id must be a positive integer, got %q", value)
	}
	return id, nil
}
