package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetStatus_LoggedOut(t *testing.T) {
	a, _ := newTestApp(&fakeAuth{}, "")
	assert.Equal(t, "", a.getStatus())
}

func TestGetStatus_ShowsNameAndRole(t *testing.T) {
	a, _ := newTestApp(&fakeAuth{identity: jane}, "")
	assert.Equal(t, "(Jane Doe Employee)", a.getStatus())
}

func TestRoot_GreetsRestoredUser(t *testing.T) {
	capturePrintln(t)

	a, out := newTestApp(&fakeAuth{identity: jane}, "exit\n")
	a.Root(context.Background())

	assert.Contains(t, out.String(), "Welcome back, Jane Doe")
}
