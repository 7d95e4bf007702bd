package filesvc

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/campusflow/core"
)

const (
	// URLPrefix is the path the uploads directory is served under.
	URLPrefix = "/uploads"

	AvatarSize = 256
)

var (
	AvatarExtensions = []string{".jpg", ".jpeg", ".png"}

	ErrNotAnImage = core.NewError(core.ErrInvalidArgument, "file is not a valid image. Use: "+strings.Join(AvatarExtensions, ", "))
)

// Stored describes a file written to the uploads directory.
type Stored struct {
	Name string // file name, eg. "id_proof_1a2b3c4d.pdf"
	Path string // absolute path on disk
	URL  string // public URL, eg. "/uploads/<user_id>/id_proof_1a2b3c4d.pdf"
}

// LocalStore writes uploads under <dir>/<user_id>/.
type LocalStore struct {
	dir    string
	logger core.Logger
}

func NewLocalStore(conf *core.Config, logger core.Logger) *LocalStore {
	return &LocalStore{dir: conf.UploadsDir, logger: logger}
}

func (s *LocalStore) Dir() string {
	return s.dir
}

// uniqueName returns "<prefix>_<8 hex chars><ext>".
func uniqueName(prefix, ext string) string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	return prefix + "_" + hex[:8] + strings.ToLower(ext)
}

func (s *LocalStore) create(userID, name string) (*os.File, Stored, error) {
	userID = filepath.Base(filepath.Clean("/" + userID))
	if userID == "/" || userID == "." {
		return nil, Stored{}, core.NewError(core.ErrInvalidArgument, "invalid user id")
	}
	userDir := filepath.Join(s.dir, userID)
	if err := os.MkdirAll(userDir, 0o755); err != nil {
		return nil, Stored{}, errors.Wrap(err, "creating upload directory")
	}

	st := Stored{
		Name: name,
		Path: filepath.Join(userDir, name),
		URL:  URLPrefix + "/" + userID + "/" + name,
	}
	f, err := os.OpenFile(st.Path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, Stored{}, errors.Wrap(err, "creating upload file")
	}
	return f, st, nil
}

// Save copies src to a new file named after prefix and the extension of filename.
func (s *LocalStore) Save(userID, prefix, filename string, src io.Reader) (Stored, error) {
	f, st, err := s.create(userID, uniqueName(prefix, filepath.Ext(filename)))
	if err != nil {
		return Stored{}, err
	}
	if _, err := io.Copy(f, src); err != nil {
		_ = f.Close()
		s.remove(st.Path)
		return Stored{}, errors.Wrap(err, "writing upload file")
	}
	if err := f.Close(); err != nil {
		s.remove(st.Path)
		return Stored{}, errors.Wrap(err, "closing upload file")
	}
	return st, nil
}

// SaveAvatar decodes the image, crops it to an AvatarSize square and stores the thumbnail.
func (s *LocalStore) SaveAvatar(userID, filename string, src io.Reader) (Stored, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	format, err := imaging.FormatFromExtension(ext)
	if err != nil || !isAvatarExtension(ext) {
		return Stored{}, ErrNotAnImage
	}
	img, err := imaging.Decode(src, imaging.AutoOrientation(true))
	if err != nil {
		return Stored{}, ErrNotAnImage
	}
	thumb := imaging.Fill(img, AvatarSize, AvatarSize, imaging.Center, imaging.Lanczos)

	f, st, err := s.create(userID, uniqueName("avatar", ext))
	if err != nil {
		return Stored{}, err
	}
	if err := imaging.Encode(f, thumb, format); err != nil {
		_ = f.Close()
		s.remove(st.Path)
		return Stored{}, errors.Wrap(err, "encoding avatar")
	}
	if err := f.Close(); err != nil {
		s.remove(st.Path)
		return Stored{}, errors.Wrap(err, "closing avatar file")
	}
	return st, nil
}

// Remove deletes a stored file whose upload could not be recorded.
func (s *LocalStore) Remove(st Stored) {
	s.remove(st.Path)
}

func (s *LocalStore) remove(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("removing partial upload", err)
	}
}

func isAvatarExtension(ext string) bool {
	for _, allowed := range AvatarExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}
