package record

import (
	"context"

	"github.com/pkg/errors"
)

// Hook 记录类型的生命周期钩子，返回错误会中止当前写操作
type Hook interface {
	BeforeSave(ctx context.Context, r *Record) error
	AfterSave(ctx context.Context, r *Record) error
	BeforeInsert(ctx context.Context, r *Record) error
	AfterInsert(ctx context.Context, r *Record) error
	BeforeUpdate(ctx context.Context, r *Record) error
	AfterUpdate(ctx context.Context, r *Record) error
	BeforeDelete(ctx context.Context, r *Record) error
	AfterDelete(ctx context.Context, r *Record) error
}

// NopHook 所有钩子都不做任何事，可以嵌入后只覆盖需要的方法
type NopHook struct{}

func (NopHook) BeforeSave(context.Context, *Record) error { return nil }
func (NopHook) AfterSave(context.Context, *Record) error { return nil }
func (NopHook) BeforeInsert(context.Context, *Record) error { return nil }
func (NopHook) AfterInsert(context.Context, *Record) error { return nil }
func (NopHook) BeforeUpdate(context.Context, *Record) error { return nil }
func (NopHook) AfterUpdate(context.Context, *Record) error { return nil }
func (NopHook) BeforeDelete(context.Context, *Record) error { return nil }
func (NopHook) AfterDelete(context.Context, *Record) error { return nil }

type HookFunc func(ctx context.Context, r *Record) error

// HookFuncs 用函数覆盖单个钩子，未设置的钩子不做任何事
type HookFuncs struct {
	OnBeforeSave   HookFunc
	OnAfterSave    HookFunc
	OnBeforeInsert HookFunc
	OnAfterInsert  HookFunc
	OnBeforeUpdate HookFunc
	OnAfterUpdate  HookFunc
	OnBeforeDelete HookFunc
	OnAfterDelete  HookFunc
}

func (h HookFuncs) BeforeSave(ctx context.Context, r *Record) error {
	return h.OnBeforeSave.call(ctx, r)
}

func (h HookFuncs) AfterSave(ctx context.Context, r *Record) error {
	return h.OnAfterSave.call(ctx, r)
}

func (h HookFuncs) BeforeInsert(ctx context.Context, r *Record) error {
	return h.OnBeforeInsert.call(ctx, r)
}

func (h HookFuncs) AfterInsert(ctx context.Context, r *Record) error {
	return h.OnAfterInsert.call(ctx, r)
}

func (h HookFuncs) BeforeUpdate(ctx context.Context, r *Record) error {
	return h.OnBeforeUpdate.call(ctx, r)
}

func (h HookFuncs) AfterUpdate(ctx context.Context, r *Record) error {
	return h.OnAfterUpdate.call(ctx, r)
}

func (h HookFuncs) BeforeDelete(ctx context.Context, r *Record) error {
	return h.OnBeforeDelete.call(ctx, r)
}

func (h HookFuncs) AfterDelete(ctx context.Context, r *Record) error {
	return h.OnAfterDelete.call(ctx, r)
}

func (f HookFunc) call(ctx context.Context, r *Record) error {
	if f == nil {
		return nil
	}
	return f(ctx, r)
}

// Event 钩子点
type Event string

const (
	EventBeforeSave   Event = "before_save"
	EventAfterSave    Event = "after_save"
	EventBeforeInsert Event = "before_insert"
	EventAfterInsert  Event = "after_insert"
	EventBeforeUpdate Event = "before_update"
	EventAfterUpdate  Event = "after_update"
	EventBeforeDelete Event = "before_delete"
	EventAfterDelete  Event = "after_delete"
)

// Fire 调用记录类型上对应的钩子
func Fire(ctx context.Context, event Event, r *Record) error {
	h := r.Type().Hook()

	var err error
	switch event {
	case EventBeforeSave:
		err = h.BeforeSave(ctx, r)
	case EventAfterSave:
		err = h.AfterSave(ctx, r)
	case EventBeforeInsert:
		err = h.BeforeInsert(ctx, r)
	case EventAfterInsert:
		err = h.AfterInsert(ctx, r)
	case EventBeforeUpdate:
		err = h.BeforeUpdate(ctx, r)
	case EventAfterUpdate:
		err = h.AfterUpdate(ctx, r)
	case EventBeforeDelete:
		err = h.BeforeDelete(ctx, r)
	case EventAfterDelete:
		err = h.AfterDelete(ctx, r)
	default:
		return errors.Errorf("unknown hook event %q", event)
	}

	if err != nil {
		return errors.WithMessagef(err, "%s %s hook failed", r.Schema().Name(), event)
	}
	return nil
}
