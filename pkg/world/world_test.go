package world

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zurustar/mwscript/pkg/compiler/extensions"
	"github.com/zurustar/mwscript/pkg/compiler/locals"
	"github.com/zurustar/mwscript/pkg/compiler/parser"
	"github.com/zurustar/mwscript/pkg/manifest"
)

var _ parser.Context = (*Context)(nil)

func TestGlobals(t *testing.T) {
	c := New(nil)
	require.NoError(t, c.DeclareGlobal("DoorState", locals.Short))
	require.NoError(t, c.DeclareGlobal("doorstate", locals.Short))

	assert.Equal(t, locals.Short, c.GlobalType("DOORSTATE"))
	assert.Equal(t, locals.None, c.GlobalType("missing"))

	assert.EqualError(t, c.DeclareGlobal("DoorState", locals.Float), "global DoorState redeclared as float (was short)")
	assert.Error(t, c.DeclareGlobal("bad", locals.None))
}

func TestIDs(t *testing.T) {
	c := New(nil)
	assert.True(t, c.IsID("anything"), "no ids registered accepts every id")

	c.AddID("Player")
	assert.True(t, c.IsID("player"))
	assert.False(t, c.IsID("anything"))
}

func TestMembers(t *testing.T) {
	c := New(nil)
	c.AddID("player")

	l := locals.New()
	_, err := l.Declare(locals.Long, "Counter")
	require.NoError(t, err)
	c.AddScriptLocals("OtherScript", l)

	assert.True(t, c.IsID("otherscript"))
	assert.Equal(t, locals.Long, c.MemberType("counter", "OTHERSCRIPT"))
	assert.Equal(t, locals.None, c.MemberType("missing", "otherscript"))
	assert.Equal(t, locals.None, c.MemberType("counter", "player"))

	c.AttachScript("Door_01", "otherscript")
	assert.False(t, c.IsID("door_02"))
	assert.True(t, c.IsID("door_01"))
	assert.Equal(t, locals.Long, c.MemberType("Counter", "door_01"))
}

func TestScriptNamesDoNotRestrictIDs(t *testing.T) {
	c := New(nil)
	c.AddScriptLocals("Compiled", locals.New())
	assert.True(t, c.IsID("compiled"))
	assert.True(t, c.IsID("any_object"), "object set is still unknown")
}

func TestCanDeclareLocals(t *testing.T) {
	c := New(nil)
	assert.True(t, c.CanDeclareLocals())
	c.SetCanDeclareLocals(false)
	assert.False(t, c.CanDeclareLocals())
}

func TestExtensions(t *testing.T) {
	ext, ok := New(nil).Extensions().Lookup("Enable")
	assert.True(t, ok)
	assert.NotNil(t, ext)

	reg := extensions.NewRegistry()
	assert.Same(t, reg, New(reg).Extensions())
}

func TestFromManifest(t *testing.T) {
	m, err := manifest.Parse("w.mwm", "global float Timer\nobject player\nscript Foo\nshort x\nend\n")
	require.NoError(t, err)

	c, err := FromManifest(m, nil)
	require.NoError(t, err)
	assert.Equal(t, locals.Float, c.GlobalType("timer"))
	assert.True(t, c.IsID("player"))
	assert.False(t, c.IsID("foo"), "script records are registered when they compile")
	assert.Equal(t, locals.None, c.MemberType("x", "foo"))
}

func TestConcurrentAccess(t *testing.T) {
	c := New(nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.AddScriptLocals("script", locals.New())
			_ = c.DeclareGlobal("g", locals.Short)
		}()
		go func() {
			defer wg.Done()
			_ = c.MemberType("x", "script")
			_ = c.IsID("script")
			_ = c.GlobalType("g")
		}()
	}
	wg.Wait()
	assert.Equal(t, locals.Short, c.GlobalType("g"))
}
