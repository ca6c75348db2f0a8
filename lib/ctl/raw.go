package ctl

import (
	"github.com/ValentinKolb/mctl/lib/engine"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("ctl")

// Target addresses a control either by name (Key) or by resolved MIB (Mib).
type Target interface {
	String() string
	valid() error
	call(e engine.Engine, oldp, newp []byte) int
}

var (
	_ Target = Key{}
	_ Target = Mib{}
)

// Controller issues control calls against one engine. It holds no state other
// than a cache of resolved MIBs and adds no locking around engine calls.
type Controller struct {
	e    engine.Engine
	mibs *xsync.MapOf[string, Mib]
}

// New returns a controller for e.
func New(e engine.Engine) *Controller {
	return &Controller{
		e:    e,
		mibs: xsync.NewMapOf[string, Mib](),
	}
}

// Engine returns the engine the controller talks to.
func (c *Controller) Engine() engine.Engine { return c.e }

// ReadInto copies the current value of t into dst. len(dst) must equal the
// control's value size.
func (c *Controller) ReadInto(t Target, dst []byte) error {
	if err := t.valid(); err != nil {
		return err
	}
	return statusError(t.call(c.e, dst, nil), "read", t.String())
}

// WriteFrom stores src as the new value of t.
func (c *Controller) WriteFrom(t Target, src []byte) error {
	if err := t.valid(); err != nil {
		return err
	}
	return statusError(t.call(c.e, nil, src), "write", t.String())
}

// Update stores src and returns the previous value in dst within one engine
// call. For epoch, dst receives the refreshed counter instead.
func (c *Controller) Update(t Target, src, dst []byte) error {
	if err := t.valid(); err != nil {
		return err
	}
	return statusError(t.call(c.e, dst, src), "update", t.String())
}

// MibFor resolves name once per controller and caches the result.
func (c *Controller) MibFor(name string) (Mib, error) {
	if m, ok := c.mibs.Load(name); ok {
		return m, nil
	}
	k, err := NewKey(name)
	if err != nil {
		return Mib{}, err
	}
	m, err := k.Resolve(c)
	if err != nil {
		return Mib{}, err
	}
	c.mibs.Store(name, m)
	return m, nil
}
