package shared

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"lendit/shared/cache"
	"lendit/shared/constant"
	"lendit/shared/dto"
	"lendit/shared/timezone"
)

func ConvertStringToBool(value string) *bool {
	if value == "" {
		return nil
	}

	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		log.Error().Err(err).Msg("failed to convert string to bool")

		return nil
	}

	return &boolValue
}

func CalculateTotalPage(total, limit int) (res int) {
	if total == 0 || limit <= 0 {
		res = 1
	} else {
		res = int(math.Ceil(float64(total) / float64(limit)))
	}

	return res
}

// TransformFields converts the fields of a struct into a map of updated fields.
func TransformFields(data interface{}, username string) map[string]any {
	val := reflect.ValueOf(data)
	typ := reflect.TypeOf(data)

	updatedFields := make(map[string]any)

	for index := range val.NumField() {
		field := val.Field(index)
		if field.IsZero() {
			continue
		}

		fieldName := typ.Field(index).Tag.Get("db")
		if fieldName == "" {
			continue
		}

		if field.Kind() == reflect.Pointer {
			updatedFields[fieldName] = field.Elem().Interface()

			continue
		}

		updatedFields[fieldName] = field.Interface()
	}

	updatedFields[constant.FieldModifiedAt] = timezone.Now()
	updatedFields[constant.FieldModifiedBy] = username

	return updatedFields
}

func FilterByID(id, fieldID, table string) dto.FilterGroup {
	return dto.FilterGroup{
		Filters: []any{
			dto.Filter{
				Field:    fieldID,
				Value:    id,
				Operator: dto.FilterOperatorEq,
				Table:    table,
			},
		},
	}
}

// BuildCacheKey joins the prefix and parts into a colon-separated cache key.
func BuildCacheKey(prefix string, parts ...string) string {
	if len(parts) == 0 {
		return prefix
	}

	return prefix + ":" + strings.Join(parts, ":")
}

// BuildCacheKeyWithQuery derives a cache key from the query parameters and
// filter so distinct pages and filters get distinct cache entries.
func BuildCacheKeyWithQuery(prefix string, params dto.QueryParams, filter dto.FilterGroup) string {
	where, args := filter.GetWhereClause()

	return BuildCacheKey(prefix, fmt.Sprintf("%d:%d:%s:%s:%s:%v", params.Page, params.Limit, params.SortBy, params.SortDir, where, args))
}

// InvalidateCaches clears every cache entry under the given prefix.
func InvalidateCaches(ctx context.Context, redisCache cache.RedisCache, prefix string) {
	if err := redisCache.Clear(ctx, prefix+constant.Asterix); err != nil {
		log.Error().Err(err).Str("prefix", prefix).Msg("failed to invalidate caches")
	}
}
