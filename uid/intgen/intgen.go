package intgen

import (
	"github.com/hatlonely/sorm/ref"
)

func init() {
	ref.MustRegisterT[SnowflakeGenerator](NewSnowflakeGeneratorWithOptions)
	ref.MustRegisterT[RedisGenerator](NewRedisGeneratorWithOptions)
}

// IntGenerator 生成 64 位整数 ID
type IntGenerator interface {
	Generate() (int64, error)
}
