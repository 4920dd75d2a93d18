package filecrypt

// Password is an opaque, zeroize-on-release wrapper around user-supplied
// credential bytes. It never implements Stringer and must never be logged.
type Password struct {
	b []byte
}

// NewPassword takes ownership of b; callers must not reuse b afterwards.
func NewPassword(b []byte) *Password {
	return &Password{b: b}
}

// Bytes returns the underlying buffer. The returned slice aliases Password's
// storage and becomes invalid after Release.
func (p *Password) Bytes() []byte {
	if p == nil {
		return nil
	}
	return p.b
}

// Len reports the password length in bytes.
func (p *Password) Len() int {
	if p == nil {
		return 0
	}
	return len(p.b)
}

// IsEmpty reports whether the password carries zero bytes.
func (p *Password) IsEmpty() bool {
	return p.Len() == 0
}

// Release zeroizes the underlying buffer. Safe to call multiple times.
func (p *Password) Release() {
	if p == nil {
		return
	}
	zero(p.b)
	p.b = nil
}

// SecureBytes is an opaque, zeroize-on-release wrapper for derived keys and
// other short-lived secret material (e.g. password||keyfile-hash).
type SecureBytes struct {
	b []byte
}

// NewSecureBytes takes ownership of b; callers must not reuse b afterwards.
func NewSecureBytes(b []byte) *SecureBytes {
	return &SecureBytes{b: b}
}

// Bytes returns the underlying buffer, aliased until Release.
func (s *SecureBytes) Bytes() []byte {
	if s == nil {
		return nil
	}
	return s.b
}

// Release zeroizes the underlying buffer. Safe to call multiple times.
func (s *SecureBytes) Release() {
	if s == nil {
		return
	}
	zero(s.b)
	s.b = nil
}

// zero overwrites b in place. Go provides no Drop semantics, so every
// secret-holding type must call this explicitly at the end of its scope;
// callers are expected to `defer secret.Release()` immediately after
// construction.
func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
