package intgen

import (
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSnowflakeGenerator(t *testing.T) {
	Convey("测试 SnowflakeGenerator", t, func() {
		Convey("机器号写入中间 10 位", func() {
			machineID := int64(5)
			g, err := NewSnowflakeGeneratorWithOptions(&SnowflakeOptions{MachineID: &machineID})
			So(err, ShouldBeNil)
			id, err := g.Generate()
			So(err, ShouldBeNil)
			So((id>>machineIDShift)&maxMachineID, ShouldEqual, 5)
		})

		Convey("机器号越界", func() {
			machineID := int64(maxMachineID + 1)
			_, err := NewSnowflakeGeneratorWithOptions(&SnowflakeOptions{MachineID: &machineID})
			So(err, ShouldNotBeNil)
		})

		Convey("同一毫秒内序列号递增，溢出后等待下一毫秒", func() {
			machineID := int64(1)
			g, _ := NewSnowflakeGeneratorWithOptions(&SnowflakeOptions{MachineID: &machineID})
			clock := int64(100)
			calls := 0
			g.now = func() int64 {
				calls++
				if calls > maxSequence+2 {
					return clock + 1
				}
				return clock
			}

			var last int64
			for i := 0; i <= maxSequence+1; i++ {
				id, err := g.Generate()
				So(err, ShouldBeNil)
				So(id, ShouldBeGreaterThan, last)
				last = id
			}
			So(last>>timestampShift, ShouldEqual, clock+1)
		})

		Convey("时钟回拨不产生重复 ID", func() {
			machineID := int64(1)
			g, _ := NewSnowflakeGeneratorWithOptions(&SnowflakeOptions{MachineID: &machineID})
			clock := int64(1000)
			g.now = func() int64 { return clock }
			a, _ := g.Generate()
			clock = 900
			b, _ := g.Generate()
			So(b, ShouldBeGreaterThan, a)
		})

		Convey("并发生成不重复", func() {
			g, _ := NewSnowflakeGeneratorWithOptions(nil)
			var mu sync.Mutex
			seen := map[int64]bool{}
			var wg sync.WaitGroup
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for j := 0; j < 500; j++ {
						id, _ := g.Generate()
						mu.Lock()
						seen[id] = true
						mu.Unlock()
					}
				}()
			}
			wg.Wait()
			So(len(seen), ShouldEqual, 4000)
		})
	})
}

func TestRedisGenerator(t *testing.T) {
	Convey("测试 RedisGenerator", t, func() {
		mr := miniredis.RunT(t)

		Convey("INCR 生成连续序列", func() {
			g, err := NewRedisGeneratorWithOptions(&RedisOptions{Addr: mr.Addr(), Key: "seq"})
			So(err, ShouldBeNil)
			defer g.Close()

			a, err := g.Generate()
			So(err, ShouldBeNil)
			b, err := g.Generate()
			So(err, ShouldBeNil)
			So(a, ShouldEqual, 1)
			So(b, ShouldEqual, 2)
			v, _ := mr.Get("seq")
			So(v, ShouldEqual, "2")
		})

		Convey("Redis 不可用时返回错误", func() {
			g, err := NewRedisGeneratorWithOptions(&RedisOptions{Addr: mr.Addr(), Key: "seq"})
			So(err, ShouldBeNil)
			mr.SetError("server down")
			_, err = g.Generate()
			So(err, ShouldNotBeNil)
			mr.SetError("")
		})

		Convey("缺少 key", func() {
			_, err := NewRedisGeneratorWithOptions(&RedisOptions{Addr: mr.Addr()})
			So(err, ShouldNotBeNil)
		})
	})
}
