package utils

import (
	"strconv"
	"strings"
)

func BuildProductsListCacheKey(limit int, search *string) string {
	s := ""
	if search != nil {
		s = strings.ToLower(strings.TrimSpace(*search))
	}

	return "products:list:v1:limit=" + strconv.Itoa(limit) + ":search=" + s
}
