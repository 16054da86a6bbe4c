// Copyright (c) 2026 wp-deploy contributors
// wp-deploy - WordPress file and database sync tool
// This source code is licensed under the MIT license found in the LICENSE file.

package state

import (
	"bytes"
	"testing"
)

func TestPasswordCacheRoundTrip(t *testing.T) {
	t.Cleanup(PasswordCache.Clear)

	if got := PasswordCache.Get(); got != nil {
		t.Fatalf("fresh cache returned %q", got)
	}

	original := []byte("secret")
	PasswordCache.Set(original)

	// The cache holds a copy, not the caller's slice.
	original[0] = 'X'
	got := PasswordCache.Get()
	if !bytes.Equal(got, []byte("secret")) {
		t.Errorf("cache returned %q", got)
	}

	// And returned copies are independent of the stored value.
	got[0] = 'Y'
	if again := PasswordCache.Get(); !bytes.Equal(again, []byte("secret")) {
		t.Errorf("stored value mutated via returned copy: %q", again)
	}
}

func TestPasswordCacheClear(t *testing.T) {
	PasswordCache.Set([]byte("secret"))
	PasswordCache.Clear()
	if got := PasswordCache.Get(); got != nil {
		t.Errorf("cleared cache returned %q", got)
	}
}
