package model

import (
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// MergeQuery appends params to the query component of rawURL. The existing
// query is kept in front of the new pairs, and everything outside the query
// component (scheme, host, path, fragment) is preserved byte for byte.
func MergeQuery(rawURL string, params Params) string {
	if len(params) == 0 {
		return rawURL
	}
	base, fragment, hasFragment := strings.Cut(rawURL, "#")
	path, query, hasQuery := strings.Cut(base, "?")

	query = strings.Trim(query+"&"+EncodeForm(params), "&")

	var b strings.Builder
	b.Grow(len(rawURL) + len(query) + 1)
	b.WriteString(path)
	if hasQuery || query != "" {
		b.WriteByte('?')
		b.WriteString(query)
	}
	if hasFragment {
		b.WriteByte('#')
		b.WriteString(fragment)
	}
	return b.String()
}

// EncodeForm renders params as application/x-www-form-urlencoded pairs.
// Keys are emitted in sorted order. Nested maps and slices become bracketed
// keys (a[b]=1, a[0]=1), booleans become 1 and 0, nil values are omitted.
func EncodeForm(params Params) string {
	var pairs []string
	for _, k := range sortedKeys(params) {
		pairs = appendForm(pairs, k, reflect.ValueOf(params[k]))
	}
	return strings.Join(pairs, "&")
}

func sortedKeys(m Params) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func appendForm(pairs []string, key string, v reflect.Value) []string {
	for v.IsValid() && (v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer) {
		if v.IsNil() {
			return pairs
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return pairs
	}

	switch v.Kind() {
	case reflect.Map:
		keys := make([]string, 0, v.Len())
		values := make(map[string]reflect.Value, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			k := fmt.Sprint(iter.Key().Interface())
			keys = append(keys, k)
			values[k] = iter.Value()
		}
		sort.Strings(keys)
		for _, k := range keys {
			pairs = appendForm(pairs, key+"["+k+"]", values[k])
		}
		return pairs
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8 {
			return append(pairs, url.QueryEscape(key)+"="+url.QueryEscape(string(v.Bytes())))
		}
		for i := 0; i < v.Len(); i++ {
			pairs = appendForm(pairs, key+"["+strconv.Itoa(i)+"]", v.Index(i))
		}
		return pairs
	}
	return append(pairs, url.QueryEscape(key)+"="+url.QueryEscape(scalar(v)))
}

func scalar(v reflect.Value) string {
	switch v.Kind() {
	case reflect.Bool:
		if v.Bool() {
			return "1"
		}
		return "0"
	case reflect.Float32:
		return strconv.FormatFloat(v.Float(), 'f', -1, 32)
	case reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64)
	case reflect.String:
		return v.String()
	}
	return fmt.Sprint(v.Interface())
}
