package tests

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/campusflow/apps/api/echo"
	"github.com/trezcool/campusflow/core/hostel"
)

func Test_hostelApi_available(t *testing.T) {
	app, env := setup(t)
	student := env.RegisterStudent(t, "Student", "student@example.com")
	admin := env.CreateAdmin(t)
	adminToken := getToken(t, env.Conf, admin)

	runHTTPTests(t, app, []httpTest{
		{
			name:     "empty catalog",
			method:   http.MethodGet,
			path:     "/api/hostel/available",
			token:    getToken(t, env.Conf, student),
			wantCode: http.StatusOK,
			wantData: []byte(`{"hostels": []}`),
		},
		{
			name:     "student cannot create",
			method:   http.MethodPost,
			path:     "/api/hostel/create",
			body:     marchallObj(t, hostel.NewHostel{Name: "Block A", Capacity: 100, AvailableRooms: 40}),
			token:    getToken(t, env.Conf, student),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name:     "more rooms than capacity",
			method:   http.MethodPost,
			path:     "/api/hostel/create",
			body:     marchallObj(t, hostel.NewHostel{Name: "Block A", Capacity: 10, AvailableRooms: 40}),
			token:    adminToken,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "admin creates",
			method:   http.MethodPost,
			path:     "/api/hostel/create",
			body:     marchallObj(t, hostel.NewHostel{Name: "Block A", Capacity: 100, AvailableRooms: 40}),
			token:    adminToken,
			wantCode: http.StatusCreated,
		},
		{
			name:     "duplicate name",
			method:   http.MethodPost,
			path:     "/api/hostel/create",
			body:     marchallObj(t, hostel.NewHostel{Name: "Block A", Capacity: 100, AvailableRooms: 40}),
			token:    adminToken,
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: "a hostel with this name already exists"}),
		},
	})

	req, rec := newAuthRequest(http.MethodGet, "/api/hostel/available", getToken(t, env.Conf, student))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res struct {
		Hostels []hostel.Hostel `json:"hostels"`
	}
	unmarshalBody(t, rec, &res)
	require.Len(t, res.Hostels, 1)
	assert.Equal(t, "Block A", res.Hostels[0].Name)
}

func Test_hostelApi_lifecycle(t *testing.T) {
	app, env := setup(t)
	student := env.RegisterStudent(t, "Student", "student@example.com")
	admin := env.CreateAdmin(t)
	token := getToken(t, env.Conf, student)
	adminToken := getToken(t, env.Conf, admin)

	notHosteller := marchallObj(t, httpErr{Error: "not a hosteller"})

	runHTTPTests(t, app, []httpTest{
		{
			name:     "view before applying",
			method:   http.MethodGet,
			path:     "/api/hostel",
			token:    token,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, hostel.View{Status: hostel.NotApplied, Attendance: []hostel.AttendanceRecord{}}),
		},
		{
			name:     "mess before applying",
			method:   http.MethodPut,
			path:     "/api/hostel/mess-register",
			token:    token,
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "hostel application not found"}),
		},
		{
			name:     "attendance before applying",
			method:   http.MethodGet,
			path:     "/api/hostel/attendance",
			token:    token,
			wantCode: http.StatusForbidden,
			wantData: notHosteller,
		},
		{
			name:     "apply",
			method:   http.MethodPost,
			path:     "/api/hostel/apply",
			body:     marchallObj(t, hostel.Preferences{Preference1: " Block A ", Preference2: "Block B"}),
			token:    token,
			wantCode: http.StatusOK,
		},
		{
			name:     "apply twice",
			method:   http.MethodPost,
			path:     "/api/hostel/apply",
			body:     []byte(`{}`),
			token:    token,
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: "hostel application already submitted"}),
		},
		{
			name:     "mess while pending",
			method:   http.MethodPut,
			path:     "/api/hostel/mess-register",
			token:    token,
			wantCode: http.StatusUnprocessableEntity,
			wantData: marchallObj(t, httpErr{Error: "hostel not allocated yet"}),
		},
		{
			name:     "mark attendance while pending",
			method:   http.MethodPost,
			path:     "/api/hostel/attendance/mark",
			body:     []byte(`{"date": "2024-01-02", "status": "present"}`),
			token:    token,
			wantCode: http.StatusForbidden,
			wantData: notHosteller,
		},
		{
			name:     "student cannot list applications",
			method:   http.MethodGet,
			path:     "/api/hostel/applications",
			token:    token,
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name:     "invalid status filter",
			method:   http.MethodGet,
			path:     "/api/hostel/applications?status=lost",
			token:    adminToken,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "invalid status"}),
		},
		{
			name:     "no allocated applications",
			method:   http.MethodGet,
			path:     "/api/hostel/applications?status=allocated",
			token:    adminToken,
			wantCode: http.StatusOK,
			wantData: []byte(`{"applications": []}`),
		},
	})

	req, rec := newAuthRequest(http.MethodGet, "/api/hostel/applications?status=pending", adminToken)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res struct {
		Applications []hostel.Application `json:"applications"`
	}
	unmarshalBody(t, rec, &res)
	require.Len(t, res.Applications, 1)
	app1 := res.Applications[0]
	assert.Equal(t, student.ID, app1.UserID)
	assert.Equal(t, "Block A", app1.Preferences.Preference1)
	assert.Equal(t, hostel.MessNotRegistered, app1.MessRegistration)

	allocatePath := "/api/hostel/" + app1.ID + "/allocate"

	runHTTPTests(t, app, []httpTest{
		{
			name:     "student cannot allocate",
			method:   http.MethodPut,
			path:     allocatePath + "?hostel_name=Block+A&room_number=101",
			token:    token,
			wantCode: http.StatusForbidden,
		},
		{
			name:     "allocation missing room",
			method:   http.MethodPut,
			path:     allocatePath + "?hostel_name=Block+A",
			token:    adminToken,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"room_number": "this field is required"}),
		},
		{
			name:     "unknown application",
			method:   http.MethodPut,
			path:     "/api/hostel/unknown/allocate?hostel_name=Block+A&room_number=101",
			token:    adminToken,
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "hostel application not found"}),
		},
		{
			name:     "allocate",
			method:   http.MethodPut,
			path:     allocatePath + "?hostel_name=Block+A&room_number=101",
			token:    adminToken,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, MessageResponse{Message: "Hostel allocated successfully"}),
		},
		{
			name:     "allocate twice",
			method:   http.MethodPut,
			path:     allocatePath + "?hostel_name=Block+B&room_number=202",
			token:    adminToken,
			wantCode: http.StatusUnprocessableEntity,
			wantData: marchallObj(t, httpErr{Error: "hostel application already processed"}),
		},
		{
			name:     "reject after allocation",
			method:   http.MethodPut,
			path:     "/api/hostel/" + app1.ID + "/reject",
			token:    adminToken,
			wantCode: http.StatusUnprocessableEntity,
			wantData: marchallObj(t, httpErr{Error: "hostel application already processed"}),
		},
		{
			name:     "register mess",
			method:   http.MethodPut,
			path:     "/api/hostel/mess-register",
			token:    token,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, MessageResponse{Message: "Mess registration successful"}),
		},
		{
			name:     "register mess twice",
			method:   http.MethodPut,
			path:     "/api/hostel/mess-register",
			token:    token,
			wantCode: http.StatusUnprocessableEntity,
			wantData: marchallObj(t, httpErr{Error: "mess already registered"}),
		},
		{
			name:     "invalid attendance date",
			method:   http.MethodPost,
			path:     "/api/hostel/attendance/mark",
			body:     []byte(`{"date": "02/01/2024", "status": "present"}`),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "date must be formatted as YYYY-MM-DD"}),
		},
		{
			name:     "invalid attendance status",
			method:   http.MethodPost,
			path:     "/api/hostel/attendance/mark",
			body:     []byte(`{"date": "2024-01-02", "status": "asleep"}`),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "status must be one of present, absent, leave"}),
		},
		{
			name:     "mark attendance from body",
			method:   http.MethodPost,
			path:     "/api/hostel/attendance/mark",
			body:     []byte(`{"date": "2024-01-02", "status": "present"}`),
			token:    token,
			wantCode: http.StatusOK,
			wantData: []byte(`{"message": "Attendance marked", "date": "2024-01-02", "status": "present"}`),
		},
		{
			name:     "mark attendance from query",
			method:   http.MethodPost,
			path:     "/api/hostel/attendance/mark?date=2024-01-03&status=Leave",
			token:    token,
			wantCode: http.StatusOK,
			wantData: []byte(`{"message": "Attendance marked", "date": "2024-01-03", "status": "leave"}`),
		},
		{
			name:     "re-mark the same day",
			method:   http.MethodPost,
			path:     "/api/hostel/attendance/mark",
			body:     []byte(`{"date": "2024-01-02", "status": "absent"}`),
			token:    token,
			wantCode: http.StatusOK,
			wantData: []byte(`{"message": "Attendance marked", "date": "2024-01-02", "status": "absent"}`),
		},
	})

	req, rec = newAuthRequest(http.MethodGet, "/api/hostel/attendance", token)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var att struct {
		Attendance []hostel.AttendanceRecord `json:"attendance"`
	}
	unmarshalBody(t, rec, &att)
	require.Len(t, att.Attendance, 2)
	assert.Equal(t, "2024-01-03", att.Attendance[0].Date)
	assert.Equal(t, hostel.AttendanceLeave, att.Attendance[0].Status)
	assert.Equal(t, "2024-01-02", att.Attendance[1].Date)
	assert.Equal(t, hostel.AttendanceAbsent, att.Attendance[1].Status)

	v, err := env.Hostels.View(context.Background(), student.ID)
	require.NoError(t, err)
	assert.True(t, v.IsHosteller)
	assert.Equal(t, string(hostel.StatusAllocated), v.Status)
	require.NotNil(t, v.Application)
	assert.Equal(t, "Block A", v.Application.AllocatedHostel)
	assert.Equal(t, "101", v.Application.AllocatedRoom)
	assert.Equal(t, hostel.MessRegistered, v.Application.MessRegistration)
}

func Test_hostelApi_reject(t *testing.T) {
	app, env := setup(t)
	student := env.RegisterStudent(t, "Student", "student@example.com")
	admin := env.CreateAdmin(t)

	application, err := env.Hostels.Apply(context.Background(), student.ID, hostel.Preferences{})
	require.NoError(t, err)

	runHTTPTests(t, app, []httpTest{
		{
			name:     "reject",
			method:   http.MethodPut,
			path:     "/api/hostel/" + application.ID + "/reject",
			token:    getToken(t, env.Conf, admin),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, MessageResponse{Message: "Hostel application rejected"}),
		},
		{
			name:     "rejected is not a hosteller",
			method:   http.MethodGet,
			path:     "/api/hostel/attendance",
			token:    getToken(t, env.Conf, student),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "not a hosteller"}),
		},
	})

	ns, err := env.Notifications.Query(context.Background(), student.ID, false)
	require.NoError(t, err)
	require.NotEmpty(t, ns)
	assert.Equal(t, "Hostel Application Rejected", ns[0].Title)
}
