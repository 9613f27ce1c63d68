package intent

import (
	"errors"
	"slices"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		op      Op
		targets []string
		filters []string
		status  string
		table   string
		arity   int
	}{
		{
			name:    "With status single column",
			method:  "get_url_with_pending_images",
			op:      OpGet,
			targets: []string{"url"},
			status:  "pending",
			table:   "images",
		},
		{
			name:    "With status several columns",
			method:  "get_url_and_user_id_with_pending_images",
			op:      OpGet,
			targets: []string{"url", "user_id"},
			status:  "pending",
			table:   "images",
		},
		{
			name:    "With status multi word table",
			method:  "get_id_and_user_id_and_text_with_pending_image_service_requests",
			op:      OpGet,
			targets: []string{"id", "user_id", "text"},
			status:  "pending",
			table:   "image_service_requests",
		},
		{
			name:    "With status singular table is pluralized",
			method:  "get_user_id_with_waiting_video",
			op:      OpGet,
			targets: []string{"user_id"},
			status:  "waiting",
			table:   "videos",
		},
		{
			name:    "With status setter",
			method:  "set_status_with_pending_images",
			op:      OpSet,
			targets: []string{"status"},
			status:  "pending",
			table:   "images",
			arity:   1,
		},
		{
			name:    "Table status setter",
			method:  "set_image_service_request_status",
			op:      OpSet,
			targets: []string{"status"},
			filters: []string{"id"},
			table:   "image_service_requests",
			arity:   2,
		},
		{
			name:    "Setter with two filters",
			method:  "set_image_by_user_id_and_chat_id",
			op:      OpSet,
			targets: []string{"image"},
			filters: []string{"user_id", "chat_id"},
			table:   "images",
			arity:   3,
		},
		{
			name:    "Setter with one filter",
			method:  "set_image_by_user_id",
			op:      OpSet,
			targets: []string{"image"},
			filters: []string{"user_id"},
			table:   "images",
			arity:   2,
		},
		{
			name:    "Status setter is normalized",
			method:  "set_image_status_by_user_id",
			op:      OpSet,
			targets: []string{"status"},
			filters: []string{"user_id"},
			table:   "images",
			arity:   2,
		},
		{
			name:    "Getter by column",
			method:  "get_image_by_user_id",
			op:      OpGet,
			targets: []string{"image"},
			filters: []string{"user_id"},
			table:   "images",
			arity:   1,
		},
		{
			name:    "Update by column",
			method:  "update_image_by_user_id",
			op:      OpUpdate,
			targets: []string{"image"},
			filters: []string{"user_id"},
			table:   "images",
			arity:   2,
		},
		{
			name:    "Delete by column",
			method:  "delete_image_by_id",
			op:      OpDelete,
			targets: []string{"image"},
			filters: []string{"id"},
			table:   "images",
			arity:   1,
		},
		{
			name:   "Simple table",
			method: "get_widgets",
			op:     OpGet,
			table:  "widgets",
		},
		{
			name:   "Simple table keeps status suffix",
			method: "get_image_status",
			op:     OpGet,
			table:  "image_status",
		},
		{
			name:   "Simple table delete",
			method: "delete_widget",
			op:     OpDelete,
			table:  "widgets",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := Parse(tt.method)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.method, err)
			}
			if in.Op != tt.op {
				t.Errorf("Op = %q, want %q", in.Op, tt.op)
			}
			if !slices.Equal(in.Targets, tt.targets) {
				t.Errorf("Targets = %v, want %v", in.Targets, tt.targets)
			}
			if !slices.Equal(in.Filters, tt.filters) {
				t.Errorf("Filters = %v, want %v", in.Filters, tt.filters)
			}
			if in.Status != tt.status {
				t.Errorf("Status = %q, want %q", in.Status, tt.status)
			}
			if in.Table != tt.table {
				t.Errorf("Table = %q, want %q", in.Table, tt.table)
			}
			if in.Arity() != tt.arity {
				t.Errorf("Arity() = %d, want %d", in.Arity(), tt.arity)
			}
			if in.Name != tt.method {
				t.Errorf("Name = %q, want %q", in.Name, tt.method)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name   string
		method string
	}{
		{"Unknown operation", "fetch_image_by_user_id"},
		{"Unknown operation with status", "find_url_with_pending_images"},
		{"Status outside allow-list", "get_url_with_archived_images"},
		{"Missing table after status", "get_url_with_pending"},
		{"No separator", "get"},
		{"Empty remainder", "get_"},
		{"Reserved column", "get_by_by_id"},
		{"Empty column", "get__and_url_with_pending_images"},
		{"Too many filters", "set_image_by_a_and_b_and_c"},
		{"Setter without column", "set_widgets"},
		{"Update without column", "update_widgets"},
		{"Uppercase identifiers", "get_Image_by_user_id"},
		{"Table starts with by", "get_by_id"},
		{"Table starts with with", "get_with_pending_images"},
		{"Table starts with and", "get_and_x"},
		{"Reserved table", "delete_update"},
		{"Filter without table", "delete_by_user_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.method)
			if err == nil {
				t.Fatalf("Parse(%q) expected error", tt.method)
			}
			if !errors.Is(err, ErrParse) {
				t.Errorf("expected ErrParse, got %v", err)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *ParseError, got %T", err)
			}
			if pe.Name == "" {
				t.Error("ParseError.Name should not be empty")
			}
		})
	}
}

func TestParse_WithStatusEveryAllowedLiteral(t *testing.T) {
	for _, status := range Statuses {
		method := "get_a_and_b_with_" + status + "_jobs"
		in, err := Parse(method)
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", method, err)
		}
		if in.Status != status {
			t.Errorf("%s: Status = %q, want %q", method, in.Status, status)
		}
		if !slices.Equal(in.Targets, []string{"a", "b"}) {
			t.Errorf("%s: Targets = %v", method, in.Targets)
		}
	}
}

func TestIntent_Split(t *testing.T) {
	t.Run("Value then filter", func(t *testing.T) {
		in := MustParse("set_image_by_user_id")
		values, filters, err := in.Split([]any{"url123", 42})
		if err != nil {
			t.Fatalf("Split error: %v", err)
		}
		if values[0] != "url123" || filters[0] != 42 {
			t.Errorf("got values=%v filters=%v", values, filters)
		}
	})

	t.Run("Table status takes id first", func(t *testing.T) {
		in := MustParse("set_job_status")
		values, filters, err := in.Split([]any{7, "processing"})
		if err != nil {
			t.Fatalf("Split error: %v", err)
		}
		if values[0] != "processing" || filters[0] != 7 {
			t.Errorf("got values=%v filters=%v", values, filters)
		}
	})

	t.Run("Getter takes only filters", func(t *testing.T) {
		in := MustParse("get_image_by_user_id")
		values, filters, err := in.Split([]any{42})
		if err != nil {
			t.Fatalf("Split error: %v", err)
		}
		if len(values) != 0 || filters[0] != 42 {
			t.Errorf("got values=%v filters=%v", values, filters)
		}
	})

	t.Run("Wrong arity", func(t *testing.T) {
		in := MustParse("set_image_by_user_id")
		if _, _, err := in.Split([]any{"only-one"}); err == nil {
			t.Error("expected arity error")
		}
	})
}

func TestIntent_Columns(t *testing.T) {
	in := MustParse("set_status_with_pending_images")
	if got := in.Columns(); !slices.Equal(got, []string{"status"}) {
		t.Errorf("Columns() = %v, want [status]", got)
	}

	in = MustParse("get_url_and_user_id_with_waiting_images")
	if got := in.Columns(); !slices.Equal(got, []string{"url", "user_id", "status"}) {
		t.Errorf("Columns() = %v", got)
	}
}

func TestIntent_OnAndValidate(t *testing.T) {
	in := MustParse("set_result_by_id").On("image_service_request")
	if in.Table != "image_service_requests" {
		t.Errorf("Table = %q, want image_service_requests", in.Table)
	}
	if err := in.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}

	bad := Intent{Op: OpGet, Targets: []string{"url"}, Table: "image"}
	if err := bad.Validate(); err == nil {
		t.Error("expected error for singular table")
	}

	bad = Intent{Op: "merge", Table: "images"}
	if err := bad.Validate(); !errors.Is(err, ErrParse) {
		t.Errorf("expected ErrParse, got %v", err)
	}
}

func TestMustParse_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	MustParse("nope")
}
