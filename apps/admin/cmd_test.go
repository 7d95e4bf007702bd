package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campusflow/core/user"
	"github.com/trezcool/campusflow/tests"
)

type fakeMigrator struct {
	calls int
	err   error
}

func (m *fakeMigrator) EnsureIndexes(context.Context) error {
	m.calls++
	return m.err
}

func setup(t *testing.T) (*commandLine, *testutil.Env, *fakeMigrator) {
	env := testutil.NewEnv(t)
	db := new(fakeMigrator)

	return &commandLine{
		db:      db,
		usrSvc:  env.Users,
		courses: env.Courses,
		hostels: env.Hostels,
		logger:  env.Logger,
	}, env, db
}

type cliTest struct {
	name    string
	args    []string // without program name
	pwd     string
	wantErr error
}

func mockPassword(pwd string) {
	readPasswordFunc = func(fd int) ([]byte, error) {
		return []byte(pwd), nil
	}
}

func Test_commandLine_help(t *testing.T) {
	cli, _, _ := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "adduser no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "adduser no name", args: []string{"adduser", "-email", "a@b.cd"}, wantErr: errHelp},
		{name: "adduser no password", args: []string{"adduser", "-email", "a@b.cd", "-name", "A"}, wantErr: errHelp},
		{name: "resetpassword no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "resetpassword no password", args: []string{"resetpassword", "-email", "a@b.cd"}, wantErr: errHelp},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			mockPassword(tt.pwd)
			err := cli.run(append([]string{"admin"}, tt.args...))
			assert.Equal(t, tt.wantErr, err)
		})
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli, env, _ := setup(t)
	ctx := context.Background()

	t.Run("new student is provisioned", func(t *testing.T) {
		mockPassword("Pa$$w0rd!")
		require.NoError(t, cli.run([]string{"admin", "adduser", "-email", " Student@Example.com ", "-name", "Student"}))

		usr, err := env.Users.GetByEmail(ctx, "student@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.RoleStudent, usr.Role)
		assert.NoError(t, usr.CheckPassword("Pa$$w0rd!"))

		f, err := env.Fees.Find(ctx, usr.ID)
		require.NoError(t, err)
		assert.NotNil(t, f)
		docs, err := env.Documents.Query(ctx, usr.ID)
		require.NoError(t, err)
		assert.Len(t, docs, 5)
	})

	t.Run("new admin", func(t *testing.T) {
		mockPassword("S3cret!pwd")
		require.NoError(t, cli.run([]string{"admin", "adduser", "-email", "admin@example.com", "-name", "Admin", "-admin"}))

		usr, err := env.Users.GetByEmail(ctx, "admin@example.com")
		require.NoError(t, err)
		assert.True(t, usr.IsAdmin())
	})

	t.Run("existing user is promoted", func(t *testing.T) {
		orig, err := env.Users.GetByEmail(ctx, "student@example.com")
		require.NoError(t, err)

		mockPassword("N3w!pwd")
		require.NoError(t, cli.run([]string{"admin", "adduser", "-email", "student@example.com", "-name", "Promoted", "-admin"}))

		usr, err := env.Users.GetByEmail(ctx, "student@example.com")
		require.NoError(t, err)
		assert.Equal(t, orig.ID, usr.ID)
		assert.True(t, usr.IsAdmin())
		assert.Equal(t, "Promoted", usr.FullName)
		assert.False(t, bytes.Equal(orig.PasswordHash, usr.PasswordHash))
		assert.NoError(t, usr.CheckPassword("N3w!pwd"))
	})
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, env, _ := setup(t)
	usr := env.RegisterStudent(t, "User", "user@example.com")

	tests := []cliTest{
		{name: "user not found", args: []string{"resetpassword", "-email", "lol@example.com"}, pwd: "lol", wantErr: user.ErrNotFound},
		{name: "reset", args: []string{"resetpassword", "-email", usr.Email}, pwd: "lmao"},
		{name: "reset with mixed case email", args: []string{"resetpassword", "-email", "USER@example.com"}, pwd: "rofl"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			mockPassword(tt.pwd)
			err := cli.run(append([]string{"admin"}, tt.args...))
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "cli.run() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			refreshed, err := env.Users.GetByID(context.Background(), usr.ID)
			require.NoError(t, err)
			assert.NoError(t, refreshed.CheckPassword(tt.pwd))
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _, db := setup(t)

	require.NoError(t, cli.run([]string{"admin", "migrate"}))
	assert.Equal(t, 1, db.calls)

	db.err = errors.New("no reachable servers")
	err := cli.run([]string{"admin", "migrate"})
	require.Error(t, err)
	assert.Equal(t, "creating indexes: no reachable servers", err.Error())
}

func Test_commandLine_seed(t *testing.T) {
	ctx := context.Background()

	t.Run("built-in catalog", func(t *testing.T) {
		cli, env, _ := setup(t)
		require.NoError(t, cli.run([]string{"admin", "seed"}))

		courses, err := env.Courses.Query(ctx)
		require.NoError(t, err)
		assert.Len(t, courses, 5)
		hostels, err := env.Hostels.QueryHostels(ctx)
		require.NoError(t, err)
		assert.Len(t, hostels, 4)

		// seeding is a no-op once the collections hold data
		require.NoError(t, cli.run([]string{"admin", "seed"}))
		courses, err = env.Courses.Query(ctx)
		require.NoError(t, err)
		assert.Len(t, courses, 5)
	})

	t.Run("catalog file", func(t *testing.T) {
		cli, env, _ := setup(t)
		file := filepath.Join(t.TempDir(), "catalog.yaml")
		require.NoError(t, os.WriteFile(file, []byte(`
courses:
  - course_code: BIO101
    course_name: Biology
    credits: 2
hostels:
  - name: West Hostel
    capacity: 10
    available_rooms: 5
`), 0o600))

		require.NoError(t, cli.run([]string{"admin", "seed", "-file", file}))

		courses, err := env.Courses.Query(ctx)
		require.NoError(t, err)
		require.Len(t, courses, 1)
		assert.Equal(t, "BIO101", courses[0].Code)
	})

	t.Run("missing file", func(t *testing.T) {
		cli, _, _ := setup(t)
		assert.Error(t, cli.run([]string{"admin", "seed", "-file", filepath.Join(t.TempDir(), "nope.yaml")}))
	})
}
