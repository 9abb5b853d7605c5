package env

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

// MarshalEnv reflects over a config struct and renders .env content from
// its `env` tags. Zero-valued fields are skipped so defaults stay implicit.
func MarshalEnv(c any) (string, error) {
	v := reflect.ValueOf(c)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return "", fmt.Errorf("expected pointer to struct, got %T", c)
	}
	v = v.Elem()
	t := v.Type()

	var b strings.Builder
	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("env")
		if tag == "" || !field.IsExported() {
			continue
		}

		key := strings.Split(tag, ",")[0]
		if key == "" {
			continue
		}

		val := v.Field(i)
		if val.IsZero() {
			continue
		}

		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(formatValue(val))
		b.WriteByte('\n')
	}

	return b.String(), nil
}

func formatValue(v reflect.Value) string {
	if d, ok := v.Interface().(time.Duration); ok {
		return d.String()
	}
	return fmt.Sprintf("%v", v.Interface())
}
