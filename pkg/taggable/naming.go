package taggable

import (
	"reflect"

	"gorm.io/gorm/schema"
)

var naming = schema.NamingStrategy{}

// TypeName derives the taggable type identifier for a model value: its gorm
// table name when it declares one, else the default snake_case plural of the
// struct name ("ContentBlock" -> "content_blocks").
func TypeName(v any) string {
	if v == nil {
		return ""
	}
	if tn, ok := v.(schema.Tabler); ok {
		return tn.TableName()
	}
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return ""
	}
	return naming.TableName(t.Name())
}
