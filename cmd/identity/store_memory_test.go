package identity

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStore_KakaoCreateAndLookup(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	now := time.Now().UTC()

	email := "kim@example.com"
	u, err := st.CreateKakaoUser(ctx, CreateKakaoUserInput{KakaoID: 991, Nickname: "kim", Email: &email, Now: now})
	if err != nil {
		t.Fatalf("CreateKakaoUser: %v", err)
	}
	if u.Role != RoleUser || u.KakaoID == nil || *u.KakaoID != 991 {
		t.Fatalf("unexpected user: %+v", u)
	}

	got, err := st.GetUserByKakaoID(ctx, 991)
	if err != nil || got.ID != u.ID {
		t.Fatalf("GetUserByKakaoID: %+v %v", got, err)
	}

	if _, err := st.CreateKakaoUser(ctx, CreateKakaoUserInput{KakaoID: 991, Nickname: "kim2", Now: now}); !IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestMemoryStore_GoogleLink(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	email := "jane@example.com"
	u := st.PutUser(User{Email: &email, Nickname: "jane"}, "")

	linked, err := st.LinkGoogleEmail(ctx, u.ID, "Jane@Example.com")
	if err != nil {
		t.Fatalf("LinkGoogleEmail: %v", err)
	}
	if linked.GoogleEmail == nil || *linked.GoogleEmail != "jane@example.com" {
		t.Fatalf("google email not normalized: %+v", linked.GoogleEmail)
	}

	got, err := st.GetUserByGoogleEmail(ctx, "jane@example.com")
	if err != nil || got.ID != u.ID {
		t.Fatalf("GetUserByGoogleEmail: %+v %v", got, err)
	}
}

func TestMemoryStore_NotFound(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	if _, err := st.GetUserByID(ctx, 404); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := st.GetCompanyAuthByEmail(ctx, "none@example.com"); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMemoryStore_CompanyAuth(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	c := st.PutCompany(Company{Email: "lab@corp.com", CompanyName: "LabCorp"}, "phc-hash")
	auth, err := st.GetCompanyAuthByEmail(ctx, " LAB@corp.com ")
	if err != nil {
		t.Fatalf("GetCompanyAuthByEmail: %v", err)
	}
	if auth.Company.ID != c.ID || auth.PasswordHash != "phc-hash" {
		t.Fatalf("unexpected auth: %+v", auth)
	}
	if auth.Company.Role != RoleBusiness {
		t.Fatalf("role: got %q", auth.Company.Role)
	}
}
