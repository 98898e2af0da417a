package storage

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Storage 解码后的配置数据
type Storage interface {
	// Sub key 支持 a.b[0].c 形式
	Sub(key string) Storage
	ConvertTo(object any) error
}

// MapStorage 保存 map/slice/标量组成的配置树
type MapStorage struct {
	data any
	post func(object any) error
}

func NewMapStorage(data any) *MapStorage {
	return &MapStorage{data: data}
}

// WithPostConvert 每次 ConvertTo 成功后执行 fn，接口字段中保留的子树继承 fn
func (ms *MapStorage) WithPostConvert(fn func(object any) error) *MapStorage {
	return &MapStorage{data: ms.data, post: fn}
}

func (ms *MapStorage) Data() any {
	return ms.data
}

func (ms *MapStorage) Sub(key string) Storage {
	current := ms.data
	for _, k := range parseKey(key) {
		current = child(current, k)
		if current == nil {
			break
		}
	}
	return &MapStorage{data: current, post: ms.post}
}

// ConvertTo object 必须是指针，字段名按 cfg/json/yaml/toml/ini tag 匹配
func (ms *MapStorage) ConvertTo(object any) error {
	rv := reflect.ValueOf(object)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return errors.Errorf("object must be a non-nil pointer, got %T", object)
	}
	if err := ms.convert(ms.data, rv.Elem(), ""); err != nil {
		return err
	}
	if ms.post != nil {
		return ms.post(object)
	}
	return nil
}

func parseKey(key string) []string {
	var keys []string
	for _, part := range strings.Split(key, ".") {
		for part != "" {
			open := strings.IndexByte(part, '[')
			if open < 0 {
				keys = append(keys, part)
				break
			}
			if open > 0 {
				keys = append(keys, part[:open])
			}
			end := strings.IndexByte(part, ']')
			if end < open {
				keys = append(keys, part[open+1:])
				break
			}
			keys = append(keys, part[open+1:end])
			part = part[end+1:]
		}
	}
	return keys
}

func child(data any, key string) any {
	switch v := data.(type) {
	case map[string]any:
		return v[key]
	case []any:
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 || i >= len(v) {
			return nil
		}
		return v[i]
	case []map[string]any:
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 || i >= len(v) {
			return nil
		}
		return v[i]
	}
	return nil
}

var (
	durationType = reflect.TypeOf(time.Duration(0))
	timeType     = reflect.TypeOf(time.Time{})
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (ms *MapStorage) convert(src any, dst reflect.Value, path string) error {
	if src == nil {
		return nil
	}

	if dst.Kind() == reflect.Ptr {
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		return ms.convert(src, dst.Elem(), path)
	}

	sv := reflect.ValueOf(src)

	// 接口字段保留子树，由使用方按需 ConvertTo
	if dst.Kind() == reflect.Interface {
		switch sv.Kind() {
		case reflect.Map, reflect.Slice:
			if reflect.TypeOf(&MapStorage{}).AssignableTo(dst.Type()) {
				dst.Set(reflect.ValueOf(&MapStorage{data: src, post: ms.post}))
				return nil
			}
		}
		if sv.Type().AssignableTo(dst.Type()) {
			dst.Set(sv)
			return nil
		}
		return errors.Errorf("%s: cannot assign %T to %v", path, src, dst.Type())
	}

	switch dst.Type() {
	case durationType:
		return convertDuration(sv, dst, path)
	case timeType:
		return convertTime(sv, dst, path)
	}

	switch dst.Kind() {
	case reflect.Struct:
		return ms.convertStruct(sv, dst, path)
	case reflect.Slice:
		return ms.convertSlice(sv, dst, path)
	case reflect.Map:
		return ms.convertMap(sv, dst, path)
	case reflect.Bool:
		if sv.Kind() == reflect.String {
			b, err := strconv.ParseBool(sv.String())
			if err != nil {
				return errors.Wrapf(err, "%s: parse bool", path)
			}
			dst.SetBool(b)
			return nil
		}
	case reflect.String:
		if sv.Kind() != reflect.String {
			dst.SetString(fmt.Sprint(src))
			return nil
		}
	}

	if sv.Type().AssignableTo(dst.Type()) {
		dst.Set(sv)
		return nil
	}
	if isNumber(sv.Kind()) && isNumber(dst.Kind()) {
		dst.Set(sv.Convert(dst.Type()))
		return nil
	}
	if sv.Kind() == reflect.String && isNumber(dst.Kind()) {
		f, err := strconv.ParseFloat(sv.String(), 64)
		if err != nil {
			return errors.Wrapf(err, "%s: parse number", path)
		}
		dst.Set(reflect.ValueOf(f).Convert(dst.Type()))
		return nil
	}
	if sv.Type().ConvertibleTo(dst.Type()) && sv.Kind() == dst.Kind() {
		dst.Set(sv.Convert(dst.Type()))
		return nil
	}
	return errors.Errorf("%s: cannot convert %T to %v", path, src, dst.Type())
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func convertDuration(sv reflect.Value, dst reflect.Value, path string) error {
	switch {
	case sv.Kind() == reflect.String:
		d, err := time.ParseDuration(sv.String())
		if err != nil {
			return errors.Wrapf(err, "%s: parse duration", path)
		}
		dst.SetInt(int64(d))
	case sv.Kind() == reflect.Float32 || sv.Kind() == reflect.Float64:
		// 浮点数按秒处理
		dst.SetInt(int64(sv.Float() * float64(time.Second)))
	case isNumber(sv.Kind()):
		dst.SetInt(sv.Convert(durationType).Int())
	default:
		return errors.Errorf("%s: cannot convert %v to duration", path, sv.Type())
	}
	return nil
}

func convertTime(sv reflect.Value, dst reflect.Value, path string) error {
	if t, ok := sv.Interface().(time.Time); ok {
		dst.Set(reflect.ValueOf(t))
		return nil
	}
	if sv.Kind() != reflect.String {
		return errors.Errorf("%s: cannot convert %v to time", path, sv.Type())
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, sv.String()); err == nil {
			dst.Set(reflect.ValueOf(t))
			return nil
		}
	}
	return errors.Errorf("%s: invalid time %q", path, sv.String())
}

func (ms *MapStorage) convertSlice(sv reflect.Value, dst reflect.Value, path string) error {
	if sv.Kind() != reflect.Slice && sv.Kind() != reflect.Array {
		return errors.Errorf("%s: expected a list, got %v", path, sv.Type())
	}
	out := reflect.MakeSlice(dst.Type(), sv.Len(), sv.Len())
	for i := 0; i < sv.Len(); i++ {
		if err := ms.convert(sv.Index(i).Interface(), out.Index(i), path+"["+strconv.Itoa(i)+"]"); err != nil {
			return err
		}
	}
	dst.Set(out)
	return nil
}

func (ms *MapStorage) convertMap(sv reflect.Value, dst reflect.Value, path string) error {
	if sv.Kind() != reflect.Map {
		return errors.Errorf("%s: expected a map, got %v", path, sv.Type())
	}
	if dst.Type().Key().Kind() != reflect.String {
		return errors.Errorf("%s: map key must be a string, got %v", path, dst.Type().Key())
	}
	if dst.IsNil() {
		dst.Set(reflect.MakeMap(dst.Type()))
	}
	iter := sv.MapRange()
	for iter.Next() {
		key := reflect.ValueOf(keyString(iter.Key())).Convert(dst.Type().Key())
		elem := reflect.New(dst.Type().Elem()).Elem()
		if err := ms.convert(iter.Value().Interface(), elem, join(path, key.String())); err != nil {
			return err
		}
		dst.SetMapIndex(key, elem)
	}
	return nil
}

func (ms *MapStorage) convertStruct(sv reflect.Value, dst reflect.Value, path string) error {
	if sv.Kind() != reflect.Map {
		return errors.Errorf("%s: expected a map, got %v", path, sv.Type())
	}

	values := map[string]reflect.Value{}
	iter := sv.MapRange()
	for iter.Next() {
		values[keyString(iter.Key())] = iter.Value()
	}

	t := dst.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name := fieldName(sf)
		if name == "-" {
			continue
		}
		v, ok := values[name]
		if !ok {
			v, ok = values[strings.ToLower(name)]
		}
		if !ok {
			continue
		}
		if err := ms.convert(v.Interface(), dst.Field(i), join(path, name)); err != nil {
			return err
		}
	}
	return nil
}

func fieldName(sf reflect.StructField) string {
	for _, tag := range []string{"cfg", "json", "yaml", "toml", "ini"} {
		if name, _, _ := strings.Cut(sf.Tag.Get(tag), ","); name != "" {
			return name
		}
	}
	return sf.Name
}

func keyString(k reflect.Value) string {
	return fmt.Sprint(k.Interface())
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
