package strgen

import (
	"encoding/hex"

	"github.com/google/uuid"
	"github.com/hatlonely/sorm/ref"
	"github.com/pkg/errors"
)

func init() {
	ref.MustRegisterT[UUIDGenerator](NewUUIDGeneratorWithOptions)
}

// StrGenerator 生成字符串 ID
type StrGenerator interface {
	Generate() (string, error)
}

type UUIDOptions struct {
	// Version v1, v4, v6, v7
	Version string `cfg:"version" def:"v4" validate:"oneof=v1 v4 v6 v7"`
	// WithHyphens 是否保留连字符，默认输出 32 位十六进制
	WithHyphens bool `cfg:"withHyphens"`
}

type UUIDGenerator struct {
	newUUID     func() (uuid.UUID, error)
	withHyphens bool
}

func NewUUIDGeneratorWithOptions(options *UUIDOptions) (*UUIDGenerator, error) {
	if options == nil {
		options = &UUIDOptions{}
	}

	g := &UUIDGenerator{withHyphens: options.WithHyphens}
	switch options.Version {
	case "v1":
		g.newUUID = uuid.NewUUID
	case "v4", "":
		g.newUUID = uuid.NewRandom
	case "v6":
		g.newUUID = uuid.NewV6
	case "v7":
		g.newUUID = uuid.NewV7
	default:
		return nil, errors.Errorf("unsupported uuid version %q", options.Version)
	}
	return g, nil
}

func (g *UUIDGenerator) Generate() (string, error) {
	u, err := g.newUUID()
	if err != nil {
		return "", errors.Wrap(err, "generate uuid failed")
	}
	if g.withHyphens {
		return u.String(), nil
	}
	return hex.EncodeToString(u[:]), nil
}
