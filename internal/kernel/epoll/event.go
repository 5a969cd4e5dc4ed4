package epoll

// Event bits and control operations use the Linux ABI values so callers can
// pass them through unchanged.
const (
	EPOLLIN      uint32 = 0x001
	EPOLLPRI     uint32 = 0x002
	EPOLLOUT     uint32 = 0x004
	EPOLLERR     uint32 = 0x008
	EPOLLHUP     uint32 = 0x010
	EPOLLRDHUP   uint32 = 0x2000
	EPOLLONESHOT uint32 = 1 << 30
	EPOLLET      uint32 = 1 << 31
)

const (
	EPOLL_CTL_ADD = 1
	EPOLL_CTL_DEL = 2
	EPOLL_CTL_MOD = 3
)

// EPOLL_CLOEXEC is the only flag epoll_create1 understands.
const EPOLL_CLOEXEC = 0x80000

// Event is both a registration (requested mask plus token) and a report
// (one ready condition plus the token it was registered with).
type Event struct {
	Events uint32 `json:"events"`
	Data   uint64 `json:"data"`
}

// Registration is one interest-set entry.
type Registration struct {
	FD    int   `json:"fd"`
	Event Event `json:"event"`
}

// OpName returns a printable name for a control operation.
func OpName(op int) string {
	switch op {
	case EPOLL_CTL_ADD:
		return "EPOLL_CTL_ADD"
	case EPOLL_CTL_DEL:
		return "EPOLL_CTL_DEL"
	case EPOLL_CTL_MOD:
		return "EPOLL_CTL_MOD"
	default:
		return "EPOLL_CTL_UNKNOWN"
	}
}

// conditions lists the reportable conditions in emission order.
var conditions = [...]uint32{EPOLLIN, EPOLLOUT, EPOLLHUP, EPOLLERR}

var maskNames = []struct {
	bit  uint32
	name string
}{
	{EPOLLIN, "EPOLLIN"},
	{EPOLLPRI, "EPOLLPRI"},
	{EPOLLOUT, "EPOLLOUT"},
	{EPOLLERR, "EPOLLERR"},
	{EPOLLHUP, "EPOLLHUP"},
	{EPOLLRDHUP, "EPOLLRDHUP"},
	{EPOLLONESHOT, "EPOLLONESHOT"},
	{EPOLLET, "EPOLLET"},
}

// MaskNames lists the names of the bits set in mask.
func MaskNames(mask uint32) []string {
	var names []string
	for _, m := range maskNames {
		if mask&m.bit != 0 {
			names = append(names, m.name)
		}
	}
	return names
}

// ParseMask is the inverse of MaskNames. Unknown names yield ok == false.
func ParseMask(names []string) (mask uint32, ok bool) {
	for _, name := range names {
		found := false
		for _, m := range maskNames {
			if m.name == name {
				mask |= m.bit
				found = true
				break
			}
		}
		if !found {
			return 0, false
		}
	}
	return mask, true
}

// ParseOp maps "add", "mod" and "del" (or the EPOLL_CTL_* names) to an op.
// Unknown names map to 0, which Control rejects.
func ParseOp(name string) int {
	switch name {
	case "add", "EPOLL_CTL_ADD":
		return EPOLL_CTL_ADD
	case "mod", "EPOLL_CTL_MOD":
		return EPOLL_CTL_MOD
	case "del", "EPOLL_CTL_DEL":
		return EPOLL_CTL_DEL
	default:
		return 0
	}
}
