package tree

import "fmt"

// Packed reference to a node slot: the highest bit names the half (false = A, true = B),
// the remaining 31 bits are the slot index within that half.
// Carries no ownership, the half owns the node storage.
type NodePtr uint32

const (
	halfShift         = 31
	halfBit   NodePtr = 1 << halfShift
	indexMask NodePtr = halfBit - 1

	// Largest number of slots a single half can hold. Index 'MaxHalfCapacity' itself
	// is never handed out, since together with the B half bit it encodes Null.
	MaxHalfCapacity = int(indexMask)
)

// Null means 'no child yet materialized' or 'reference severed'
const Null NodePtr = halfBit | indexMask

// Pack half flag and slot index into a pointer.
// Panics if the index is not addressable (that is a bug in the caller, indices
// are only produced by the half allocator).
func NewNodePtr(half bool, index uint32) NodePtr {
	if uint64(index) >= uint64(MaxHalfCapacity) {
		panic(fmt.Sprintf("tree: node index %d out of addressable range [0, %d)", index, MaxHalfCapacity))
	}

	ptr := NodePtr(index) & indexMask
	if half {
		ptr |= halfBit
	}
	return ptr
}

func (p NodePtr) IsNull() bool {
	return p == Null
}

// Which half this pointer names
func (p NodePtr) Half() bool {
	return p&halfBit == halfBit
}

// Slot offset within the half
func (p NodePtr) Index() uint32 {
	return uint32(p & indexMask)
}

func (p NodePtr) String() string {
	if p.IsNull() {
		return "NodePtr(null)"
	}
	return fmt.Sprintf("NodePtr(%s:%d)", halfName(p.Half()), p.Index())
}

func halfName(half bool) string {
	if half {
		return "B"
	}
	return "A"
}
