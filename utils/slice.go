package utils

import "strings"

// SliceContains - utility-function to check wether an element is part of an array
func SliceContains[V comparable](search V, data []V) bool {
	for _, value := range data {
		if value == search {
			return true
		}
	}
	return false
}

// AppendUnique appends value unless it is already present, keeping first-seen order.
func AppendUnique[V comparable](data []V, value V) []V {
	if SliceContains(value, data) {
		return data
	}
	return append(data, value)
}

// JoinEnumsAsString renders string-backed enum values for messages, e.g. the allowed stages of a kind.
func JoinEnumsAsString[T ~string](values []T, separator string) string {
	var builder strings.Builder
	for i, value := range values {
		if i > 0 {
			builder.WriteString(separator)
		}
		builder.WriteString(string(value))
	}
	return builder.String()
}
