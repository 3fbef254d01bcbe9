package engine

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"syscall"

	"github.com/bamsammich/pdd/internal/platform"
)

// Role says which end of the transfer a Stream is.
type Role int

const (
	RoleInput Role = iota
	RoleOutput
)

func (r Role) String() string {
	if r == RoleInput {
		return "input"
	}
	return "output"
}

// Stream is an open input or output owned by one transfer.
type Stream struct {
	f      *os.File
	path   string
	role   Role
	std    bool // bound to stdin/stdout; never closed by the engine
	direct bool // direct I/O is active on the descriptor
	closed bool
}

// OpenStream opens path for role. The path "-" binds the standard stream for
// the role (stdin for input, stdout for output) without opening anything.
// Direct and synchronous modes are added as the provider allows; a request
// the platform cannot honor is downgraded with a warning.
func OpenStream(path string, role Role, cfg Config) (*Stream, error) {
	p := cfg.provider()

	if path == StdStream {
		f := cfg.Stdin
		if role == RoleOutput {
			f = cfg.Stdout
		}
		if f == nil {
			f = os.Stdin
			if role == RoleOutput {
				f = os.Stdout
			}
		}
		return &Stream{f: f, path: path, role: role, std: true}, nil
	}

	direct := cfg.Direct
	if direct && !p.SupportsDirectIO() {
		slog.Warn("direct I/O is not supported on this platform, ignoring direct flag", "path", path)
		direct = false
	}

	var flags int
	var perm os.FileMode
	if role == RoleInput {
		flags = os.O_RDONLY | p.OpenFlags(direct, false)
	} else {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC | p.OpenFlags(direct, cfg.Sync)
		perm = 0o666
	}

	f, err := os.OpenFile(path, flags, perm)
	if err != nil && direct && errors.Is(err, syscall.EINVAL) {
		// Filesystems without direct I/O support reject the flag at open time.
		slog.Warn("direct I/O rejected by filesystem, using buffered I/O", "path", path)
		direct = false
		flags &^= p.OpenFlags(true, false)
		flags |= p.OpenFlags(false, role == RoleOutput && cfg.Sync)
		f, err = os.OpenFile(path, flags, perm)
	}
	if err != nil {
		return nil, &Error{Kind: KindOpen, Op: fmt.Sprintf("cannot open %s file", role), Path: path, Err: err}
	}

	s := &Stream{f: f, path: path, role: role}
	if direct {
		if err := p.SetDirect(f, true); err != nil {
			slog.Warn("direct I/O could not be enabled, using buffered I/O", "path", path, "error", err)
		} else {
			s.direct = true
		}
	}

	slog.Debug("opened stream", "role", role, "path", path, "direct", s.direct, "sync", cfg.Sync && role == RoleOutput)
	return s, nil
}

// Path returns the path the stream was opened with.
func (s *Stream) Path() string { return s.path }

// IsStd reports whether the stream is bound to stdin or stdout.
func (s *Stream) IsStd() bool { return s.std }

// File exposes the descriptor for platform queries.
func (s *Stream) File() *os.File { return s.f }

func (s *Stream) Read(p []byte) (int, error)  { return s.f.Read(p) }
func (s *Stream) Write(p []byte) (int, error) { return s.f.Write(p) }

// Seek repositions the stream to an absolute offset. Non-seekable streams
// such as pipes return an error instead of silently ignoring the request.
func (s *Stream) Seek(offset int64) error {
	pos, err := s.f.Seek(offset, io.SeekStart)
	if err != nil {
		return err
	}
	if pos != offset {
		return fmt.Errorf("positioned at %d instead of %d", pos, offset)
	}
	return nil
}

// Size returns the number of bytes the stream holds when that is knowable:
// regular files report their size and block devices their capacity.
// Standard streams never report a size.
func (s *Stream) Size() (int64, bool) {
	if s.IsStd() {
		return 0, false
	}
	fi, err := s.f.Stat()
	if err != nil {
		return 0, false
	}
	if fi.Mode().IsRegular() {
		return fi.Size(), true
	}
	if !platform.IsBlockDevice(fi) {
		return 0, false
	}
	cur, err := s.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, false
	}
	end, err := s.f.Seek(0, io.SeekEnd)
	if _, rerr := s.f.Seek(cur, io.SeekStart); rerr != nil || err != nil {
		return 0, false
	}
	return end, true
}

// IsRegular reports whether the stream is a named regular file.
func (s *Stream) IsRegular() bool {
	if s.IsStd() {
		return false
	}
	fi, err := s.f.Stat()
	return err == nil && fi.Mode().IsRegular()
}

// Close closes the descriptor once. Standard streams are left open because
// the process, not the transfer, owns them.
func (s *Stream) Close() error {
	if s == nil || s.closed {
		return nil
	}
	s.closed = true
	if s.IsStd() {
		return nil
	}
	if err := s.f.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return err
	}
	return nil
}
