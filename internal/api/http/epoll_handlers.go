package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/AgentOS/ipcd/internal/kernel/epoll"
)

var errUnknownCondition = errors.New("unknown epoll condition")

// eventView is one ready condition as reported to clients.
type eventView struct {
	Events uint32   `json:"events"`
	Names  []string `json:"names"`
	Data   uint64   `json:"data"`
}

// EpollCreate creates an epoll instance
func (h *Handlers) EpollCreate(c *gin.Context) {
	p, ok := h.process(c)
	if !ok {
		return
	}

	var req struct {
		CloExec bool `json:"cloexec"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}

	flags := 0
	if req.CloExec {
		flags = epoll.EPOLL_CLOEXEC
	}
	epfd, err := p.Sys.EpollCreate1(flags)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"epfd": epfd})
}

// EpollCtl edits the interest set. Conditions may be given as names
// ("events") or as a raw bit mask ("mask").
func (h *Handlers) EpollCtl(c *gin.Context) {
	p, ok := h.process(c)
	if !ok {
		return
	}
	epfd, ok := fdParam(c, "epfd")
	if !ok {
		return
	}

	var req struct {
		Op     string   `json:"op" binding:"required"`
		FD     *int     `json:"fd" binding:"required"`
		Events []string `json:"events"`
		Mask   *uint32  `json:"mask"`
		Data   uint64   `json:"data"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	mask, ok := epoll.ParseMask(req.Events)
	if !ok {
		badRequest(c, errUnknownCondition)
		return
	}
	if req.Mask != nil {
		mask |= *req.Mask
	}

	op := epoll.ParseOp(req.Op)
	var ev *epoll.Event
	if op != epoll.EPOLL_CTL_DEL {
		ev = &epoll.Event{Events: mask, Data: req.Data}
	}

	if err := p.Sys.EpollCtl(epfd, op, *req.FD, ev); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// EpollWait waits for readiness on an epoll instance
func (h *Handlers) EpollWait(c *gin.Context) {
	p, ok := h.process(c)
	if !ok {
		return
	}
	epfd, ok := fdParam(c, "epfd")
	if !ok {
		return
	}

	var req struct {
		MaxEvents int `json:"max_events"`
		TimeoutMS int `json:"timeout_ms"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	var events []epoll.Event
	if req.MaxEvents > 0 && req.MaxEvents <= h.maxEvents {
		events = make([]epoll.Event, req.MaxEvents)
	}

	n, err := p.Sys.EpollWait(c.Request.Context(), epfd, events, req.MaxEvents, req.TimeoutMS)
	if err != nil {
		fail(c, err)
		return
	}

	out := make([]eventView, 0, n)
	for _, ev := range events[:n] {
		out = append(out, eventView{Events: ev.Events, Names: epoll.MaskNames(ev.Events), Data: ev.Data})
	}
	c.JSON(http.StatusOK, gin.H{"n": n, "events": out})
}

// EpollList shows the interest set of an epoll instance
func (h *Handlers) EpollList(c *gin.Context) {
	p, ok := h.process(c)
	if !ok {
		return
	}
	epfd, ok := fdParam(c, "epfd")
	if !ok {
		return
	}

	regs, err := p.Sys.EpollRegistrations(epfd)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"registrations": regs})
}
