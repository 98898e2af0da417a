package ref

import (
	"reflect"
	"sync"

	"github.com/pkg/errors"
)

// TypeOptions 通过 namespace 和 type 定位构造函数，Options 作为构造参数
type TypeOptions struct {
	Namespace string `cfg:"namespace"`
	Type      string `cfg:"type" validate:"required"`
	Options   any    `cfg:"options"`
}

// Convertable 配置数据可以转换成构造函数需要的参数类型
type Convertable interface {
	ConvertTo(object any) error
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

type constructor struct {
	fn        reflect.Value
	paramType reflect.Type
	hasError  bool
}

// newConstructor 构造函数形如 func([options]) T 或 func([options]) (T, error)
func newConstructor(fn any) (*constructor, error) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return nil, errors.Errorf("constructor must be a function, got %T", fn)
	}

	t := v.Type()
	if t.NumIn() > 1 {
		return nil, errors.Errorf("constructor must take at most one parameter, got %d", t.NumIn())
	}
	if t.NumOut() != 1 && t.NumOut() != 2 {
		return nil, errors.Errorf("constructor must return 1 or 2 values, got %d", t.NumOut())
	}
	if t.NumOut() == 2 && !t.Out(1).Implements(errorType) {
		return nil, errors.New("second return value of constructor must be an error")
	}

	c := &constructor{fn: v, hasError: t.NumOut() == 2}
	if t.NumIn() == 1 {
		c.paramType = t.In(0)
	}
	return c, nil
}

func (c *constructor) call(options any) (any, error) {
	var args []reflect.Value
	if c.paramType != nil {
		arg, err := c.argument(options)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}

	out := c.fn.Call(args)
	if c.hasError && !out[1].IsNil() {
		return nil, out[1].Interface().(error)
	}
	return out[0].Interface(), nil
}

// argument nil 对应参数类型的零值，Convertable 先转换成参数类型
func (c *constructor) argument(options any) (reflect.Value, error) {
	if options == nil {
		return reflect.Zero(c.paramType), nil
	}

	if convertable, ok := options.(Convertable); ok && !reflect.TypeOf(options).AssignableTo(c.paramType) {
		isPtr := c.paramType.Kind() == reflect.Ptr
		target := reflect.New(c.paramType)
		if isPtr {
			target = reflect.New(c.paramType.Elem())
		}
		if err := convertable.ConvertTo(target.Interface()); err != nil {
			return reflect.Value{}, errors.Wrapf(err, "convert options to %v failed", c.paramType)
		}
		if isPtr {
			return target, nil
		}
		return target.Elem(), nil
	}

	v := reflect.ValueOf(options)
	if !v.Type().AssignableTo(c.paramType) {
		return reflect.Value{}, errors.Errorf("options type %v is not assignable to %v", v.Type(), c.paramType)
	}
	return v, nil
}

var registry sync.Map

func key(namespace, typ string) string {
	return namespace + ":" + typ
}

// Register 注册构造函数，重复注册同一个函数会被忽略
func Register(namespace string, typ string, fn any) error {
	c, err := newConstructor(fn)
	if err != nil {
		return errors.WithMessagef(err, "register %s", key(namespace, typ))
	}

	if existing, loaded := registry.LoadOrStore(key(namespace, typ), c); loaded {
		if existing.(*constructor).fn.Pointer() != c.fn.Pointer() {
			return errors.Errorf("constructor for %s already registered with a different function", key(namespace, typ))
		}
	}
	return nil
}

func MustRegister(namespace string, typ string, fn any) {
	if err := Register(namespace, typ, fn); err != nil {
		panic(err)
	}
}

// RegisterT 以 T 的包路径和类型名注册
func RegisterT[T any](fn any) error {
	namespace, typ, err := typeKey[T]()
	if err != nil {
		return err
	}
	return Register(namespace, typ, fn)
}

func MustRegisterT[T any](fn any) {
	if err := RegisterT[T](fn); err != nil {
		panic(err)
	}
}

func New(namespace string, typ string, options any) (any, error) {
	value, ok := registry.Load(key(namespace, typ))
	if !ok {
		return nil, errors.Errorf("constructor not found for %s", key(namespace, typ))
	}
	obj, err := value.(*constructor).call(options)
	if err != nil {
		return nil, errors.WithMessagef(err, "new %s failed", key(namespace, typ))
	}
	return obj, nil
}

// NewWithOptions 按 TypeOptions 构造
func NewWithOptions(options *TypeOptions) (any, error) {
	if options == nil {
		return nil, errors.New("type options is nil")
	}
	return New(options.Namespace, options.Type, options.Options)
}

// NewT 按 T 的包路径和类型名构造
func NewT[T any](options any) (T, error) {
	var zero T
	namespace, typ, err := typeKey[T]()
	if err != nil {
		return zero, err
	}
	obj, err := New(namespace, typ, options)
	if err != nil {
		return zero, err
	}
	return As[T](obj)
}

// As 断言构造结果实现了 T
func As[T any](obj any) (T, error) {
	t, ok := obj.(T)
	if !ok {
		var zero T
		return zero, errors.Errorf("%T does not implement %v", obj, reflect.TypeOf((*T)(nil)).Elem())
	}
	return t, nil
}

func typeKey[T any]() (string, string, error) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.PkgPath() == "" || t.Name() == "" {
		return "", "", errors.Errorf("cannot determine package path or type name of %v", t)
	}
	return t.PkgPath(), t.Name(), nil
}
