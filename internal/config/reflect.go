package config

import (
	"fmt"
	"reflect"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// ConfigField represents metadata about a config field extracted from struct tags
type ConfigField struct {
	Key      string   // e.g., "table.page_size"
	Default  string   // default value as string
	Desc     string   // description for help text
	Min      int      // minimum value for int fields (0 = no limit)
	Max      int      // maximum value for int fields (0 = no limit)
	Enum     []string // allowed values for string fields (empty = any)
	Type     string   // "string", "int" or "bool"
	Category string   // e.g., "database", "table", "log"
	ReadOnly bool     // if true, cannot be set via CLI
}

var (
	fieldCache     []ConfigField
	fieldCacheOnce sync.Once
)

// configFields extracts all config fields from Config using reflection
func configFields() []ConfigField {
	fieldCacheOnce.Do(func() {
		cfg := &Config{}
		extractFields(reflect.TypeOf(cfg).Elem(), &fieldCache)

		sort.Slice(fieldCache, func(i, j int) bool {
			return fieldCache[i].Key < fieldCache[j].Key
		})
	})
	return fieldCache
}

// extractFields recursively extracts config fields from a struct
func extractFields(t reflect.Type, fields *[]ConfigField) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		configKey := field.Tag.Get("config")
		if configKey == "" {
			if field.Type.Kind() == reflect.Struct && field.Tag.Get("toml") != "" {
				extractFields(field.Type, fields)
			}
			continue
		}

		cf := ConfigField{
			Key:      configKey,
			Default:  field.Tag.Get("default"),
			Desc:     field.Tag.Get("desc"),
			Category: strings.Split(configKey, ".")[0],
			ReadOnly: field.Tag.Get("readonly") == "true",
		}

		if minStr := field.Tag.Get("min"); minStr != "" {
			cf.Min, _ = strconv.Atoi(minStr)
		}
		if maxStr := field.Tag.Get("max"); maxStr != "" {
			cf.Max, _ = strconv.Atoi(maxStr)
		}
		if enum := field.Tag.Get("enum"); enum != "" {
			cf.Enum = strings.Split(enum, ",")
		}

		switch field.Type.Kind() {
		case reflect.Int:
			cf.Type = "int"
		case reflect.Bool:
			cf.Type = "bool"
		case reflect.String:
			cf.Type = "string"
		}

		*fields = append(*fields, cf)
	}
}

// findField finds a config field by key
func findField(key string) *ConfigField {
	key = normalizeKey(key)
	for _, f := range configFields() {
		if f.Key == key {
			return &f
		}
	}
	return nil
}

// normalizeKey handles key aliases
func normalizeKey(key string) string {
	aliases := map[string]string{
		"database":        "database.url",
		"db.url":          "database.url",
		"table.pagesize":  "table.page_size",
		"table.page-size": "table.page_size",
	}
	if normalized, ok := aliases[strings.ToLower(key)]; ok {
		return normalized
	}
	return key
}

// lookupField navigates to the field tagged with key
func lookupField(cfg any, key string) (reflect.Value, bool) {
	parts := strings.Split(key, ".")
	if len(parts) != 2 {
		return reflect.Value{}, false
	}

	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	// Find the nested struct by toml tag
	var nestedValue reflect.Value
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).Tag.Get("toml") == parts[0] {
			nestedValue = v.Field(i)
			break
		}
	}
	if !nestedValue.IsValid() || nestedValue.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}

	nestedType := nestedValue.Type()
	for i := 0; i < nestedType.NumField(); i++ {
		if nestedType.Field(i).Tag.Get("config") == key {
			return nestedValue.Field(i), true
		}
	}
	return reflect.Value{}, false
}

// getFieldValue gets a field value from a config struct using reflection
func getFieldValue(cfg any, key string) (string, bool) {
	fieldValue, ok := lookupField(cfg, normalizeKey(key))
	if !ok {
		return "", false
	}

	switch fieldValue.Kind() {
	case reflect.String:
		return fieldValue.String(), true
	case reflect.Int:
		return strconv.FormatInt(fieldValue.Int(), 10), true
	case reflect.Bool:
		return strconv.FormatBool(fieldValue.Bool()), true
	}
	return "", false
}

// setFieldValue sets a field value on a config struct using reflection
func setFieldValue(cfg any, key, value string) error {
	key = normalizeKey(key)

	field := findField(key)
	if field == nil {
		return fmt.Errorf("unknown config key: %s", key)
	}
	if field.ReadOnly {
		return fmt.Errorf("config key %s is read-only", key)
	}

	fieldValue, ok := lookupField(cfg, key)
	if !ok {
		return fmt.Errorf("field not found: %s", key)
	}

	switch fieldValue.Kind() {
	case reflect.String:
		if len(field.Enum) > 0 && !slices.Contains(field.Enum, value) {
			return fmt.Errorf("invalid value %q: expected one of %s", value, strings.Join(field.Enum, ", "))
		}
		fieldValue.SetString(value)
		return nil

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean value: %s", value)
		}
		fieldValue.SetBool(b)
		return nil

	case reflect.Int:
		intVal, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value: %s", value)
		}

		if field.Min != 0 && intVal < field.Min {
			return fmt.Errorf("value %d is below minimum %d", intVal, field.Min)
		}
		if field.Max != 0 && intVal > field.Max {
			return fmt.Errorf("value %d exceeds maximum %d", intVal, field.Max)
		}

		fieldValue.SetInt(int64(intVal))
		return nil
	}

	return fmt.Errorf("unsupported field type for %s", key)
}

// ListKeys returns all settable config keys
func ListKeys() []string {
	var keys []string
	for _, f := range configFields() {
		if !f.ReadOnly {
			keys = append(keys, f.Key)
		}
	}
	return keys
}

// GenerateHelpText generates help text for the config options
func GenerateHelpText() string {
	var sb strings.Builder

	byCategory := make(map[string][]ConfigField)
	for _, f := range configFields() {
		byCategory[f.Category] = append(byCategory[f.Category], f)
	}

	categories := []struct {
		key   string
		title string
	}{
		{"database", "Database"},
		{"table", "Table defaults"},
		{"log", "Logging"},
	}

	for _, cat := range categories {
		fields := byCategory[cat.key]
		if len(fields) == 0 {
			continue
		}

		fmt.Fprintf(&sb, "  %s:\n", cat.title)
		for _, f := range fields {
			defaultStr := ""
			if f.Default != "" {
				defaultStr = fmt.Sprintf(" (default: %s)", f.Default)
			}
			fmt.Fprintf(&sb, "    %-35s %s%s\n", f.Key, f.Desc, defaultStr)
		}
		sb.WriteString("\n")
	}

	return strings.TrimSuffix(sb.String(), "\n")
}
