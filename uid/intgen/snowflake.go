package intgen

import (
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"
)

const (
	sequenceBits  = 12
	machineIDBits = 10

	maxSequence  = 1<<sequenceBits - 1
	maxMachineID = 1<<machineIDBits - 1

	machineIDShift = sequenceBits
	timestampShift = sequenceBits + machineIDBits
)

// epoch 2020-01-01 00:00:00 UTC
var epoch = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()

type SnowflakeOptions struct {
	// MachineID 为空时取本机 IPv4 地址的低两个字节
	MachineID *int64 `cfg:"machineID"`
}

// SnowflakeGenerator 41 位毫秒时间戳 + 10 位机器号 + 12 位序列号
type SnowflakeGenerator struct {
	mu        sync.Mutex
	machineID int64
	lastMilli int64
	sequence  int64
	now       func() int64
}

func NewSnowflakeGeneratorWithOptions(options *SnowflakeOptions) (*SnowflakeGenerator, error) {
	machineID := machineIDFromIP()
	if options != nil && options.MachineID != nil {
		machineID = *options.MachineID
	}
	if machineID < 0 || machineID > maxMachineID {
		return nil, errors.Errorf("machine id must be in [0, %d], got %d", maxMachineID, machineID)
	}

	return &SnowflakeGenerator{
		machineID: machineID,
		now:       func() int64 { return time.Now().UnixMilli() - epoch },
	}, nil
}

func machineIDFromIP() int64 {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return 0
	}
	for _, addr := range addrs {
		ipnet, ok := addr.(*net.IPNet)
		if !ok || ipnet.IP.IsLoopback() {
			continue
		}
		if ip := ipnet.IP.To4(); ip != nil {
			return (int64(ip[2])<<8 | int64(ip[3])) & maxMachineID
		}
	}
	return 0
}

func (g *SnowflakeGenerator) Generate() (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	// 时钟回拨时沿用上一次的时间戳
	if now < g.lastMilli {
		now = g.lastMilli
	}

	if now == g.lastMilli {
		g.sequence = (g.sequence + 1) & maxSequence
		if g.sequence == 0 {
			for now <= g.lastMilli {
				now = g.now()
			}
		}
	} else {
		g.sequence = 0
	}
	g.lastMilli = now

	return now<<timestampShift | g.machineID<<machineIDShift | g.sequence, nil
}
