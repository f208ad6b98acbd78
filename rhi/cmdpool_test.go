package rhi

import "testing"

// TestCmdPoolRejectsForeignOwner covers the thread-affine pool contract:
// operations presented with a different OwnerToken than the pool's owner
// must panic rather than silently proceed.
func TestCmdPoolRejectsForeignOwner(t *testing.T) {
	owner := NewOwnerToken()
	other := NewOwnerToken()
	pool := NewCmdPool(owner, 0)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic when a foreign owner token uses the pool")
		}
	}()
	pool.assertOwner(other)
}

// TestCmdPoolAcceptsCreatingOwner ensures the happy path does not panic.
func TestCmdPoolAcceptsCreatingOwner(t *testing.T) {
	owner := NewOwnerToken()
	pool := NewCmdPool(owner, 0)
	pool.assertOwner(owner) // must not panic
}
