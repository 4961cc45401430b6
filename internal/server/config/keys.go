package config

import (
	"reflect"
	"strings"
	"time"
)

// Keys returns every leaf koanf key of Config, e.g. "broker.client_id".
// The loader uses them to map GATECAM_BROKER_CLIENT_ID to the right key.
func Keys() []string {
	var keys []string
	collectKeys(reflect.TypeOf(Config{}), "", &keys)
	return keys
}

func collectKeys(t reflect.Type, prefix string, keys *[]string) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
		if tag == "" || tag == "-" {
			continue
		}
		key := prefix + tag
		if f.Type.Kind() == reflect.Struct {
			collectKeys(f.Type, key+".", keys)
			continue
		}
		*keys = append(*keys, key)
	}
}

// ToMap returns cfg as nested maps keyed like the YAML file, with
// durations in their string form. It is used to print the configuration.
func ToMap(cfg *Config) map[string]any {
	return structMap(reflect.ValueOf(cfg).Elem())
}

func structMap(v reflect.Value) map[string]any {
	out := make(map[string]any)
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		tag, _, _ := strings.Cut(t.Field(i).Tag.Get("koanf"), ",")
		if tag == "" || tag == "-" {
			continue
		}
		f := v.Field(i)
		switch {
		case f.Type() == reflect.TypeOf(time.Duration(0)):
			out[tag] = time.Duration(f.Int()).String()
		case f.Kind() == reflect.Struct:
			out[tag] = structMap(f)
		default:
			out[tag] = f.Interface()
		}
	}
	return out
}
