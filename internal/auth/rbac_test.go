package auth

import (
	"slices"
	"testing"
)

func activeUser(role Role) *User {
	return &User{ID: "u-" + string(role), Username: string(role), Role: role, IsActive: true}
}

func testDoc(mission string) *Document {
	return &Document{ID: "d-1", Title: "Telemetry Summary", Mission: mission, UploadedBy: "u-owner"}
}

func TestHasPermissionTables(t *testing.T) {
	c := NewChecker()
	cases := []struct {
		role Role
		perm string
		want bool
	}{
		{RoleViewer, PermDocumentsRead, true},
		{RoleViewer, PermMissionsRead, true},
		{RoleViewer, PermDocumentsWrite, false},
		{RoleViewer, PermUsersRead, false},
		{RoleEngineer, PermDocumentsRead, true},
		{RoleEngineer, PermDocumentsWrite, true},
		{RoleEngineer, PermMissionsRead, true},
		{RoleEngineer, PermDocumentsDelete, false},
		{RoleEngineer, PermUsersWrite, false},
		{RoleEngineer, PermAdminAccess, false},
		{RoleAdmin, PermDocumentsDelete, true},
		{RoleAdmin, PermAdminAccess, true},
		{RoleAdmin, "made:up", true},
	}
	for _, tc := range cases {
		if got := c.HasPermission(activeUser(tc.role), tc.perm); got != tc.want {
			t.Errorf("HasPermission(%s, %s) = %v, want %v", tc.role, tc.perm, got, tc.want)
		}
	}
}

func TestInactiveUserDeniedEverywhere(t *testing.T) {
	c := NewChecker()
	u := activeUser(RoleAdmin)
	u.IsActive = false
	if c.HasPermission(u, PermDocumentsRead) {
		t.Error("inactive admin passed HasPermission")
	}
	if c.HasRole(u, RoleAdmin) {
		t.Error("inactive admin passed HasRole")
	}
	if c.CanAccessMission(u, "apollo") {
		t.Error("inactive admin passed CanAccessMission")
	}
	if c.CanAccessDocument(u, testDoc(""), nil, nil) {
		t.Error("inactive admin passed CanAccessDocument")
	}
	if c.CanModifyDocument(u, testDoc(""), nil, nil) {
		t.Error("inactive admin passed CanModifyDocument")
	}
}

func TestMissionPolicy(t *testing.T) {
	c := NewChecker()
	if !c.CanAccessMission(activeUser(RoleEngineer), "") {
		t.Error("active engineer denied on unscoped resource")
	}
	if !c.CanAccessMission(activeUser(RoleViewer), "Apollo") {
		t.Error("active viewer denied on scoped mission under default policy")
	}
	if !c.CanAccessMission(activeUser(RoleAdmin), "Apollo") {
		t.Error("admin denied on scoped mission")
	}
}

func TestNilUserDenied(t *testing.T) {
	c := NewChecker()
	if c.HasPermission(nil, PermDocumentsRead) || c.HasRole(nil, RoleViewer) || c.CanAccessDocument(nil, testDoc(""), nil, nil) {
		t.Error("nil user passed a check")
	}
}

func TestHasRoleIsExact(t *testing.T) {
	c := NewChecker()
	admin := activeUser(RoleAdmin)
	if c.HasRole(admin, RoleEngineer) {
		t.Error("HasRole climbed the hierarchy")
	}
	if !c.HasAnyRole(admin, RoleEngineer, RoleAdmin) {
		t.Error("HasAnyRole missed an exact match")
	}
}

func TestRolesIncluding(t *testing.T) {
	c := NewChecker()
	got := c.RolesIncluding(RoleEngineer)
	if len(got) != 2 || !slices.Contains(got, RoleAdmin) || !slices.Contains(got, RoleEngineer) {
		t.Fatalf("RolesIncluding(engineer) = %v", got)
	}
	got = c.RolesIncluding(RoleViewer)
	if len(got) != 3 {
		t.Fatalf("RolesIncluding(viewer) = %v", got)
	}
}

func TestDocumentDefaults(t *testing.T) {
	c := NewChecker()
	doc := testDoc("apollo")

	for _, role := range []Role{RoleAdmin, RoleEngineer, RoleViewer} {
		if !c.CanAccessDocument(activeUser(role), doc, nil, nil) {
			t.Errorf("%s denied default read", role)
		}
	}
	if !c.CanModifyDocument(activeUser(RoleEngineer), doc, nil, nil) {
		t.Error("engineer denied default modify")
	}
	if c.CanModifyDocument(activeUser(RoleViewer), doc, nil, nil) {
		t.Error("viewer allowed default modify")
	}
	if !c.CanModifyDocument(activeUser(RoleAdmin), doc, nil, nil) {
		t.Error("admin denied modify")
	}
}

func TestUserOverrideBeatsRoleOverride(t *testing.T) {
	c := NewChecker()
	doc := testDoc("")
	viewer := activeUser(RoleViewer)

	userWrite := []DocumentPermission{{DocumentID: doc.ID, UserID: viewer.ID, Type: PermissionWrite}}
	roleRead := []DocumentPermission{{DocumentID: doc.ID, Role: RoleViewer, Type: PermissionRead}}

	if !c.CanModifyDocument(viewer, doc, userWrite, roleRead) {
		t.Error("user-specific write override did not win over role read")
	}
	if !c.CanAccessDocument(viewer, doc, userWrite, roleRead) {
		t.Error("write override did not grant read")
	}
}

func TestReadOnlyUserOverrideFallsThroughForModify(t *testing.T) {
	c := NewChecker()
	doc := testDoc("")
	viewer := activeUser(RoleViewer)

	userRead := []DocumentPermission{{DocumentID: doc.ID, UserID: viewer.ID, Type: PermissionRead}}
	roleWrite := []DocumentPermission{{DocumentID: doc.ID, Role: RoleViewer, Type: PermissionWrite}}

	// A read-only user override does not veto the role-level write grant.
	if !c.CanModifyDocument(viewer, doc, userRead, roleWrite) {
		t.Error("role write override was blocked by read-only user override")
	}
	// Without the role grant the viewer stays read-only.
	if c.CanModifyDocument(viewer, doc, userRead, nil) {
		t.Error("read-only override allowed modify")
	}
}

func TestRoleOverrideGrantsModify(t *testing.T) {
	c := NewChecker()
	doc := testDoc("")
	viewer := activeUser(RoleViewer)
	roleWrite := []DocumentPermission{{DocumentID: doc.ID, Role: RoleViewer, Type: PermissionWrite}}
	if !c.CanModifyDocument(viewer, doc, nil, roleWrite) {
		t.Error("role write override denied")
	}
}

func TestAdminSkipsOverrides(t *testing.T) {
	c := NewChecker()
	doc := testDoc("classified")
	admin := activeUser(RoleAdmin)
	// Even an explicit read-only row for the admin does not restrict them.
	userRead := []DocumentPermission{{DocumentID: doc.ID, UserID: admin.ID, Type: PermissionRead}}
	if !c.CanModifyDocument(admin, doc, userRead, nil) {
		t.Error("admin restricted by override row")
	}
}

func TestParseRole(t *testing.T) {
	if _, err := ParseRole("superuser"); err == nil {
		t.Error("unknown role accepted")
	}
	role, err := ParseRole("engineer")
	if err != nil || role != RoleEngineer {
		t.Fatalf("ParseRole(engineer) = %v, %v", role, err)
	}
}

func TestParsePermissionType(t *testing.T) {
	if _, err := ParsePermissionType("execute"); err == nil {
		t.Error("unknown permission type accepted")
	}
	pt, err := ParsePermissionType("delete")
	if err != nil || pt != PermissionDelete {
		t.Fatalf("ParsePermissionType(delete) = %v, %v", pt, err)
	}
}
