package tree

import (
	"encoding/json"
	"strings"
	"unsafe"
)

const (
	DefaultHalfCapacity  int   = 1 << 16
	DefaultByteSizeLimit int64 = -1

	// Used to translate a memory budget into a slot count, most nodes
	// in a search tree are leaves that never get expanded
	EstimatedEdgesPerNode = 4

	// Root copy + at least one child
	minHalfCapacity = 2
)

type Config struct {
	// Slots per half, used when ByteSize is not set
	HalfCapacity int
	// Memory budget for both halves together, overrides HalfCapacity
	ByteSize int64
}

func (c Config) String() string {
	builder := strings.Builder{}
	_ = json.NewEncoder(&builder).Encode(c)
	return builder.String()
}

func DefaultConfig() *Config {
	return &Config{
		HalfCapacity: DefaultHalfCapacity,
		ByteSize:     DefaultByteSizeLimit,
	}
}

// Set the number of slots in each half
func (c *Config) SetHalfCapacity(capacity int) *Config {
	c.HalfCapacity = capacity
	c.ByteSize = DefaultByteSizeLimit
	return c
}

// Set the memory budget of the whole tree in megabytes
func (c *Config) SetMbSize(mbsize int) *Config {
	return c.SetByteSize(int64(mbsize) * (1 << 20))
}

func (c *Config) SetByteSize(bytesize int64) *Config {
	c.ByteSize = bytesize
	return c
}

// Approximate memory used by a single slot, including its share of edges
func NodeSize[T MoveLike]() int64 {
	return int64(unsafe.Sizeof(Node[T]{})) + EstimatedEdgesPerNode*int64(unsafe.Sizeof(Edge[T]{}))
}

// Number of slots each half gets under this config
func HalfCapacity[T MoveLike](c *Config) int {
	capacity := c.HalfCapacity
	if c.ByteSize != DefaultByteSizeLimit {
		capacity = int(c.ByteSize / 2 / NodeSize[T]())
	}
	return min(max(capacity, minHalfCapacity), MaxHalfCapacity)
}
