// Package db provides integration tests for SurrealDB operations.
package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/thinkable-app/thinkable-go/internal/models"
)

var testDB *Client
var testContainer testcontainers.Container

// TestMain sets up and tears down the SurrealDB container for all tests.
func TestMain(m *testing.M) {
	// Disable ryuk (cleanup container) as it can cause issues in some environments
	os.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true")

	ctx := context.Background()

	// Start SurrealDB container
	var err error
	testContainer, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "surrealdb/surrealdb:v3.0.0-beta.1",
			ExposedPorts: []string{"8000/tcp"},
			Cmd:          []string{"start", "--log", "info", "--user", "root", "--pass", "root"},
			WaitingFor:   wait.ForLog("Started web server").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("Failed to start SurrealDB container: %v", err)
	}

	// Get container host and port
	host, err := testContainer.Host(ctx)
	if err != nil {
		log.Fatalf("Failed to get container host: %v", err)
	}
	// Workaround: testcontainers may return "null" as host in some environments
	if host == "" || host == "null" {
		host = "localhost"
	}
	mappedPort, err := testContainer.MappedPort(ctx, "8000")
	if err != nil {
		log.Fatalf("Failed to get mapped port: %v", err)
	}

	// Connect to test database
	testDB, err = NewClient(ctx, Config{
		URL:       fmt.Sprintf("ws://%s:%s/rpc", host, mappedPort.Port()),
		Namespace: "test",
		Database:  "test",
		Username:  "root",
		Password:  "root",
		AuthLevel: "root",
	}, nil, nil)
	if err != nil {
		log.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := testDB.InitSchema(ctx); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	// Run tests
	code := m.Run()

	// Cleanup
	_ = testDB.Close(ctx)
	_ = testContainer.Terminate(ctx)

	os.Exit(code)
}

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestCreateAndGetConversation(t *testing.T) {
	ctx := context.Background()
	owner := "owner-conv-crud"

	conv, err := testDB.QueryCreateConversation(ctx, owner, "Test Board", models.Meta{
		models.MetaPosition: 3,
	})
	if err != nil {
		t.Fatalf("QueryCreateConversation failed: %v", err)
	}
	defer func() {
		_ = testDB.QueryDeleteConversation(ctx, owner, models.MustRecordIDString(conv.ID))
	}()

	if conv.Title != "Test Board" {
		t.Errorf("Expected title 'Test Board', got %q", conv.Title)
	}
	if conv.Owner != owner {
		t.Errorf("Expected owner %q, got %q", owner, conv.Owner)
	}
	if pos, ok := conv.Metadata.Position(); !ok || pos != 3 {
		t.Errorf("Expected position 3, got %v (ok=%v)", pos, ok)
	}

	// Get by id
	id := models.MustRecordIDString(conv.ID)
	fetched, err := testDB.QueryGetConversation(ctx, owner, id)
	if err != nil {
		t.Fatalf("QueryGetConversation failed: %v", err)
	}
	if fetched.Title != "Test Board" {
		t.Errorf("Expected title 'Test Board', got %q", fetched.Title)
	}

	// Missing row
	_, err = testDB.QueryGetConversation(ctx, owner, "does-not-exist")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing row, got %v", err)
	}

	// Someone else's row
	_, err = testDB.QueryGetConversation(ctx, "someone-else", id)
	if !errors.Is(err, ErrNotOwned) {
		t.Errorf("Expected ErrNotOwned for foreign row, got %v", err)
	}
}

func TestListConversationsOrdersByPosition(t *testing.T) {
	ctx := context.Background()
	owner := "owner-conv-order"

	titles := []string{"third", "first", "second"}
	positions := []int{2, 0, 1}
	var ids []string
	for i, title := range titles {
		conv, err := testDB.QueryCreateConversation(ctx, owner, title, models.Meta{
			models.MetaPosition: positions[i],
		})
		if err != nil {
			t.Fatalf("Failed to create conversation %q: %v", title, err)
		}
		ids = append(ids, models.MustRecordIDString(conv.ID))
	}
	defer func() {
		for _, id := range ids {
			_ = testDB.QueryDeleteConversation(ctx, owner, id)
		}
	}()

	convs, err := testDB.QueryListConversations(ctx, owner)
	if err != nil {
		t.Fatalf("QueryListConversations failed: %v", err)
	}
	if len(convs) != 3 {
		t.Fatalf("Expected 3 conversations, got %d", len(convs))
	}
	want := []string{"first", "second", "third"}
	for i, conv := range convs {
		if conv.Title != want[i] {
			t.Errorf("Position %d: expected %q, got %q", i, want[i], conv.Title)
		}
	}
}

func TestRenameConversation(t *testing.T) {
	ctx := context.Background()
	owner := "owner-conv-rename"

	conv, err := testDB.QueryCreateConversation(ctx, owner, "Before", nil)
	if err != nil {
		t.Fatalf("Failed to create conversation: %v", err)
	}
	id := models.MustRecordIDString(conv.ID)
	defer func() {
		_ = testDB.QueryDeleteConversation(ctx, owner, id)
	}()

	// Automatic rename leaves manuallyRenamed unset
	if err := testDB.QueryRenameConversation(ctx, owner, id, "Auto Title", false); err != nil {
		t.Fatalf("QueryRenameConversation (auto) failed: %v", err)
	}
	fetched, err := testDB.QueryGetConversation(ctx, owner, id)
	if err != nil {
		t.Fatalf("QueryGetConversation failed: %v", err)
	}
	if fetched.Title != "Auto Title" {
		t.Errorf("Expected title 'Auto Title', got %q", fetched.Title)
	}
	if fetched.Metadata.ManuallyRenamed() {
		t.Error("Automatic rename should not set manuallyRenamed")
	}

	// Manual rename records the flag
	if err := testDB.QueryRenameConversation(ctx, owner, id, "My Title", true); err != nil {
		t.Fatalf("QueryRenameConversation (manual) failed: %v", err)
	}
	fetched, err = testDB.QueryGetConversation(ctx, owner, id)
	if err != nil {
		t.Fatalf("QueryGetConversation failed: %v", err)
	}
	if fetched.Title != "My Title" {
		t.Errorf("Expected title 'My Title', got %q", fetched.Title)
	}
	if !fetched.Metadata.ManuallyRenamed() {
		t.Error("Manual rename should set manuallyRenamed")
	}

	// Foreign owner must not rename
	if err := testDB.QueryRenameConversation(ctx, "intruder", id, "Stolen", true); err != nil {
		t.Fatalf("QueryRenameConversation (foreign) errored: %v", err)
	}
	fetched, _ = testDB.QueryGetConversation(ctx, owner, id)
	if fetched.Title != "My Title" {
		t.Errorf("Foreign rename changed the title to %q", fetched.Title)
	}
}

func TestMergeConversationMetaPreservesOtherKeys(t *testing.T) {
	ctx := context.Background()
	owner := "owner-conv-merge"

	conv, err := testDB.QueryCreateConversation(ctx, owner, "Merge Test", models.Meta{
		models.MetaPosition: 5,
		models.MetaArchived: true,
	})
	if err != nil {
		t.Fatalf("Failed to create conversation: %v", err)
	}
	id := models.MustRecordIDString(conv.ID)
	defer func() {
		_ = testDB.QueryDeleteConversation(ctx, owner, id)
	}()

	err = testDB.QueryMergeConversationMeta(ctx, owner, id, models.Meta{
		models.MetaProjectID: "project:someproject",
	})
	if err != nil {
		t.Fatalf("QueryMergeConversationMeta failed: %v", err)
	}

	fetched, err := testDB.QueryGetConversation(ctx, owner, id)
	if err != nil {
		t.Fatalf("QueryGetConversation failed: %v", err)
	}
	if pid, ok := fetched.Metadata.ProjectID(); !ok || pid != "project:someproject" {
		t.Errorf("Expected project_id 'project:someproject', got %q (ok=%v)", pid, ok)
	}
	if pos, ok := fetched.Metadata.Position(); !ok || pos != 5 {
		t.Errorf("Merge dropped position: got %v (ok=%v)", pos, ok)
	}
	if !fetched.Metadata.Archived() {
		t.Error("Merge dropped archived flag")
	}
}

func TestUnsetConversationMetaKey(t *testing.T) {
	ctx := context.Background()
	owner := "owner-conv-unset"

	conv, err := testDB.QueryCreateConversation(ctx, owner, "Unset Test", models.Meta{
		models.MetaProjectID: "project:p1",
		models.MetaPosition:  2,
	})
	if err != nil {
		t.Fatalf("Failed to create conversation: %v", err)
	}
	id := models.MustRecordIDString(conv.ID)
	defer func() {
		_ = testDB.QueryDeleteConversation(ctx, owner, id)
	}()

	err = testDB.QueryUnsetConversationMetaKey(ctx, owner, id, models.MetaProjectID)
	if err != nil {
		t.Fatalf("QueryUnsetConversationMetaKey failed: %v", err)
	}

	fetched, err := testDB.QueryGetConversation(ctx, owner, id)
	if err != nil {
		t.Fatalf("QueryGetConversation failed: %v", err)
	}
	if _, ok := fetched.Metadata.ProjectID(); ok {
		t.Error("project_id should be gone after unset")
	}
	if pos, ok := fetched.Metadata.Position(); !ok || pos != 2 {
		t.Errorf("Unset removed an unrelated key: position = %v (ok=%v)", pos, ok)
	}

	// Unknown keys are rejected before reaching the database
	err = testDB.QueryUnsetConversationMetaKey(ctx, owner, id, "owner")
	if err == nil {
		t.Error("Expected error for unknown meta key")
	}
}

func TestSetConversationPositions(t *testing.T) {
	ctx := context.Background()
	owner := "owner-conv-positions"

	var ids []string
	for i := 0; i < 4; i++ {
		conv, err := testDB.QueryCreateConversation(ctx, owner, fmt.Sprintf("board %d", i), nil)
		if err != nil {
			t.Fatalf("Failed to create conversation: %v", err)
		}
		ids = append(ids, models.MustRecordIDString(conv.ID))
	}
	defer func() {
		for _, id := range ids {
			_ = testDB.QueryDeleteConversation(ctx, owner, id)
		}
	}()

	// Reverse order, positions must come out dense and 0-based
	reversed := []string{ids[3], ids[2], ids[1], ids[0]}
	if err := testDB.QuerySetConversationPositions(ctx, owner, reversed); err != nil {
		t.Fatalf("QuerySetConversationPositions failed: %v", err)
	}

	for i, id := range reversed {
		fetched, err := testDB.QueryGetConversation(ctx, owner, id)
		if err != nil {
			t.Fatalf("QueryGetConversation failed: %v", err)
		}
		pos, ok := fetched.Metadata.Position()
		if !ok || pos != i {
			t.Errorf("Board %s: expected position %d, got %v (ok=%v)", id, i, pos, ok)
		}
	}
}

func TestDeleteConversationCascades(t *testing.T) {
	ctx := context.Background()
	owner := "owner-conv-cascade"

	conv, err := testDB.QueryCreateConversation(ctx, owner, "Cascade Test", nil)
	if err != nil {
		t.Fatalf("Failed to create conversation: %v", err)
	}
	id := models.MustRecordIDString(conv.ID)

	if _, err := testDB.QueryAppendMessage(ctx, owner, id, models.RoleUser, "hello"); err != nil {
		t.Fatalf("QueryAppendMessage failed: %v", err)
	}
	_, err = testDB.QueryInsertCanvasNode(ctx, owner, models.CanvasNode{
		ID:           surrealmodels.NewRecordID("canvas_node", "cascade-node-1"),
		Conversation: conv.ID,
		Kind:         models.NodeKindShape,
		X:            10, Y: 20, Width: 100, Height: 50,
	})
	if err != nil {
		t.Fatalf("QueryInsertCanvasNode failed: %v", err)
	}

	if err := testDB.QueryDeleteConversation(ctx, owner, id); err != nil {
		t.Fatalf("QueryDeleteConversation failed: %v", err)
	}

	_, err = testDB.QueryGetConversation(ctx, owner, id)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Conversation should be gone, got %v", err)
	}
	msgs, err := testDB.QueryListMessages(ctx, owner, id)
	if err != nil {
		t.Fatalf("QueryListMessages failed: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("Expected 0 messages after cascade, got %d", len(msgs))
	}
	nodes, err := testDB.QueryListCanvasNodes(ctx, owner, id)
	if err != nil {
		t.Fatalf("QueryListCanvasNodes failed: %v", err)
	}
	if len(nodes) != 0 {
		t.Errorf("Expected 0 canvas nodes after cascade, got %d", len(nodes))
	}
}

// =============================================================================
// PROJECT TESTS
// =============================================================================

func TestProjects(t *testing.T) {
	ctx := context.Background()
	owner := "owner-projects"

	proj, err := testDB.QueryCreateProject(ctx, owner, "Research", nil)
	if err != nil {
		t.Fatalf("QueryCreateProject failed: %v", err)
	}
	projID := models.MustRecordIDString(proj.ID)

	if proj.Name != "Research" {
		t.Errorf("Expected name 'Research', got %q", proj.Name)
	}

	projects, err := testDB.QueryListProjects(ctx, owner)
	if err != nil {
		t.Fatalf("QueryListProjects failed: %v", err)
	}
	if len(projects) != 1 {
		t.Fatalf("Expected 1 project, got %d", len(projects))
	}

	if err := testDB.QueryRenameProject(ctx, owner, projID, "Archive"); err != nil {
		t.Fatalf("QueryRenameProject failed: %v", err)
	}
	projects, _ = testDB.QueryListProjects(ctx, owner)
	if len(projects) != 1 || projects[0].Name != "Archive" {
		t.Errorf("Rename not visible in list: %+v", projects)
	}

	if err := testDB.QueryDeleteProject(ctx, owner, projID); err != nil {
		t.Fatalf("QueryDeleteProject failed: %v", err)
	}
	projects, _ = testDB.QueryListProjects(ctx, owner)
	if len(projects) != 0 {
		t.Errorf("Expected 0 projects after delete, got %d", len(projects))
	}
}

func TestDeleteProjectLeavesBoards(t *testing.T) {
	ctx := context.Background()
	owner := "owner-project-orphan"

	proj, err := testDB.QueryCreateProject(ctx, owner, "Doomed", nil)
	if err != nil {
		t.Fatalf("QueryCreateProject failed: %v", err)
	}
	projID := models.MustRecordIDString(proj.ID)

	conv, err := testDB.QueryCreateConversation(ctx, owner, "Member Board", models.Meta{
		models.MetaProjectID: projID,
	})
	if err != nil {
		t.Fatalf("QueryCreateConversation failed: %v", err)
	}
	convID := models.MustRecordIDString(conv.ID)
	defer func() {
		_ = testDB.QueryDeleteConversation(ctx, owner, convID)
	}()

	if err := testDB.QueryDeleteProject(ctx, owner, projID); err != nil {
		t.Fatalf("QueryDeleteProject failed: %v", err)
	}

	// Board survives with a stale back-reference
	fetched, err := testDB.QueryGetConversation(ctx, owner, convID)
	if err != nil {
		t.Fatalf("Board should survive project deletion: %v", err)
	}
	if pid, ok := fetched.Metadata.ProjectID(); !ok || pid != projID {
		t.Errorf("Expected stale project_id %q, got %q (ok=%v)", projID, pid, ok)
	}
}

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestMessagesAndBookmarks(t *testing.T) {
	ctx := context.Background()
	owner := "owner-messages"

	conv, err := testDB.QueryCreateConversation(ctx, owner, "Chat", nil)
	if err != nil {
		t.Fatalf("QueryCreateConversation failed: %v", err)
	}
	convID := models.MustRecordIDString(conv.ID)
	defer func() {
		_ = testDB.QueryDeleteConversation(ctx, owner, convID)
	}()

	first, err := testDB.QueryAppendMessage(ctx, owner, convID, models.RoleUser, "question")
	if err != nil {
		t.Fatalf("QueryAppendMessage failed: %v", err)
	}
	second, err := testDB.QueryAppendMessage(ctx, owner, convID, models.RoleAssistant, "answer")
	if err != nil {
		t.Fatalf("QueryAppendMessage failed: %v", err)
	}

	msgs, err := testDB.QueryListMessages(ctx, owner, convID)
	if err != nil {
		t.Fatalf("QueryListMessages failed: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Content != "question" || msgs[1].Content != "answer" {
		t.Errorf("Messages out of order: %q, %q", msgs[0].Content, msgs[1].Content)
	}

	// Bookmark both, then clear one
	for _, msg := range []*models.Message{first, second} {
		if err := testDB.QuerySetMessageBookmark(ctx, owner, models.MustRecordIDString(msg.ID), true); err != nil {
			t.Fatalf("QuerySetMessageBookmark failed: %v", err)
		}
	}
	count, err := testDB.QueryCountBookmarks(ctx, owner, convID)
	if err != nil {
		t.Fatalf("QueryCountBookmarks failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 bookmarks, got %d", count)
	}

	if err := testDB.QuerySetMessageBookmark(ctx, owner, models.MustRecordIDString(first.ID), false); err != nil {
		t.Fatalf("QuerySetMessageBookmark (clear) failed: %v", err)
	}
	count, _ = testDB.QueryCountBookmarks(ctx, owner, convID)
	if count != 1 {
		t.Errorf("Expected 1 bookmark after clearing, got %d", count)
	}

	// Empty conversation counts zero
	empty, err := testDB.QueryCreateConversation(ctx, owner, "Empty", nil)
	if err != nil {
		t.Fatalf("QueryCreateConversation failed: %v", err)
	}
	emptyID := models.MustRecordIDString(empty.ID)
	defer func() {
		_ = testDB.QueryDeleteConversation(ctx, owner, emptyID)
	}()
	count, err = testDB.QueryCountBookmarks(ctx, owner, emptyID)
	if err != nil {
		t.Fatalf("QueryCountBookmarks on empty conversation failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 bookmarks, got %d", count)
	}
}

// =============================================================================
// CANVAS NODE TESTS
// =============================================================================

func TestCanvasNodes(t *testing.T) {
	ctx := context.Background()
	owner := "owner-canvas"

	conv, err := testDB.QueryCreateConversation(ctx, owner, "Canvas", nil)
	if err != nil {
		t.Fatalf("QueryCreateConversation failed: %v", err)
	}
	convID := models.MustRecordIDString(conv.ID)
	defer func() {
		_ = testDB.QueryDeleteConversation(ctx, owner, convID)
	}()

	node := models.CanvasNode{
		ID:           surrealmodels.NewRecordID("canvas_node", "node-test-1"),
		Conversation: conv.ID,
		Kind:         models.NodeKindShape,
		X:            100, Y: 50, Width: 200, Height: 150,
		Style: models.NodeStyle{Shape: "rectangle", Fill: "#ffffff"},
	}
	inserted, err := testDB.QueryInsertCanvasNode(ctx, owner, node)
	if err != nil {
		t.Fatalf("QueryInsertCanvasNode failed: %v", err)
	}
	if models.MustRecordIDString(inserted.ID) != "node-test-1" {
		t.Errorf("Expected caller-chosen id 'node-test-1', got %q", models.MustRecordIDString(inserted.ID))
	}
	if inserted.Width != 200 || inserted.Height != 150 {
		t.Errorf("Geometry mismatch: %+v", inserted)
	}
	if inserted.Style.Shape != "rectangle" {
		t.Errorf("Expected shape 'rectangle', got %q", inserted.Style.Shape)
	}

	nodes, err := testDB.QueryListCanvasNodes(ctx, owner, convID)
	if err != nil {
		t.Fatalf("QueryListCanvasNodes failed: %v", err)
	}
	if len(nodes) != 1 {
		t.Fatalf("Expected 1 node, got %d", len(nodes))
	}

	if err := testDB.QueryDeleteCanvasNode(ctx, owner, "node-test-1"); err != nil {
		t.Fatalf("QueryDeleteCanvasNode failed: %v", err)
	}
	nodes, _ = testDB.QueryListCanvasNodes(ctx, owner, convID)
	if len(nodes) != 0 {
		t.Errorf("Expected 0 nodes after delete, got %d", len(nodes))
	}
}

// =============================================================================
// PROFILE TESTS
// =============================================================================

func TestProfileLifecycle(t *testing.T) {
	ctx := context.Background()
	owner := "owner-profile"

	// No profile yet
	_, err := testDB.QueryGetProfile(ctx, owner)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound before ensure, got %v", err)
	}

	// Ensure creates, second ensure reuses
	prof, err := testDB.QueryEnsureProfile(ctx, owner, "test@example.com")
	if err != nil {
		t.Fatalf("QueryEnsureProfile failed: %v", err)
	}
	again, err := testDB.QueryEnsureProfile(ctx, owner, "other@example.com")
	if err != nil {
		t.Fatalf("Second QueryEnsureProfile failed: %v", err)
	}
	if models.MustRecordIDString(prof.ID) != models.MustRecordIDString(again.ID) {
		t.Error("Ensure created a second profile for the same owner")
	}

	// Merge theme, then replace study sets; both must survive each other
	if err := testDB.QueryMergeProfileMeta(ctx, owner, models.Meta{models.MetaTheme: "dark"}); err != nil {
		t.Fatalf("QueryMergeProfileMeta failed: %v", err)
	}
	sets := []models.StudySet{
		{ID: "set-1", Name: "Biology"},
		{ID: "set-2", Name: "History"},
	}
	if err := testDB.QueryReplaceStudySets(ctx, owner, sets); err != nil {
		t.Fatalf("QueryReplaceStudySets failed: %v", err)
	}

	fetched, err := testDB.QueryGetProfile(ctx, owner)
	if err != nil {
		t.Fatalf("QueryGetProfile failed: %v", err)
	}
	if theme := fetched.Metadata.Theme(); theme != "dark" {
		t.Errorf("Expected theme 'dark', got %q", theme)
	}
	got := fetched.Metadata.StudySets()
	if len(got) != 2 {
		t.Fatalf("Expected 2 study sets, got %d", len(got))
	}
	if got[0].ID != "set-1" || got[0].Name != "Biology" {
		t.Errorf("Study set mismatch: %+v", got[0])
	}

	// Replacing with fewer sets drops the rest
	if err := testDB.QueryReplaceStudySets(ctx, owner, sets[:1]); err != nil {
		t.Fatalf("QueryReplaceStudySets (shrink) failed: %v", err)
	}
	fetched, _ = testDB.QueryGetProfile(ctx, owner)
	if got := fetched.Metadata.StudySets(); len(got) != 1 {
		t.Errorf("Expected 1 study set after shrink, got %d", len(got))
	}
}

// =============================================================================
// SESSION TESTS
// =============================================================================

func TestSessions(t *testing.T) {
	ctx := context.Background()
	owner := "owner-sessions"

	expires := time.Now().Add(time.Hour)
	if err := testDB.QueryCreateSession(ctx, "sess-1", owner, expires); err != nil {
		t.Fatalf("QueryCreateSession failed: %v", err)
	}
	if err := testDB.QueryCreateSession(ctx, "sess-2", owner, expires); err != nil {
		t.Fatalf("QueryCreateSession failed: %v", err)
	}

	sess, err := testDB.QueryGetSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("QueryGetSession failed: %v", err)
	}
	if sess.Owner != owner {
		t.Errorf("Expected owner %q, got %q", owner, sess.Owner)
	}
	if sess.ExpiresAt.Before(time.Now()) {
		t.Error("Session should not be expired")
	}

	// Delete one, the other survives
	if err := testDB.QueryDeleteSession(ctx, "sess-1"); err != nil {
		t.Fatalf("QueryDeleteSession failed: %v", err)
	}
	_, err = testDB.QueryGetSession(ctx, "sess-1")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
	if _, err := testDB.QueryGetSession(ctx, "sess-2"); err != nil {
		t.Errorf("Sibling session should survive: %v", err)
	}

	// Deleting a missing session is not an error
	if err := testDB.QueryDeleteSession(ctx, "sess-1"); err != nil {
		t.Errorf("Deleting a missing session should not error: %v", err)
	}

	// Owner-wide sign-out
	if err := testDB.QueryDeleteSessionsForOwner(ctx, owner); err != nil {
		t.Fatalf("QueryDeleteSessionsForOwner failed: %v", err)
	}
	_, err = testDB.QueryGetSession(ctx, "sess-2")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after owner-wide delete, got %v", err)
	}
}

// =============================================================================
// ADMIN TESTS
// =============================================================================

func TestAdminBoardBundle(t *testing.T) {
	ctx := context.Background()
	owner := "owner-admin-bundle"
	admin := NewAdmin(testDB)

	conv, err := testDB.QueryCreateConversation(ctx, owner, "Homepage Board", nil)
	if err != nil {
		t.Fatalf("QueryCreateConversation failed: %v", err)
	}
	convID := models.MustRecordIDString(conv.ID)
	defer func() {
		_ = testDB.QueryDeleteConversation(ctx, owner, convID)
	}()

	if _, err := testDB.QueryAppendMessage(ctx, owner, convID, models.RoleUser, "welcome"); err != nil {
		t.Fatalf("QueryAppendMessage failed: %v", err)
	}

	// Admin reads regardless of owner
	bundle, err := admin.GetBoardBundle(ctx, convID)
	if err != nil {
		t.Fatalf("GetBoardBundle failed: %v", err)
	}
	if bundle.Conversation.Title != "Homepage Board" {
		t.Errorf("Expected title 'Homepage Board', got %q", bundle.Conversation.Title)
	}
	if len(bundle.Messages) != 1 {
		t.Errorf("Expected 1 message, got %d", len(bundle.Messages))
	}

	// Missing board
	_, err = admin.GetBoardBundle(ctx, "no-such-board")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing board, got %v", err)
	}
}

func TestAdminDeleteOwner(t *testing.T) {
	ctx := context.Background()
	owner := "owner-admin-delete"
	bystander := "owner-admin-bystander"
	admin := NewAdmin(testDB)

	conv, err := testDB.QueryCreateConversation(ctx, owner, "Doomed Board", nil)
	if err != nil {
		t.Fatalf("QueryCreateConversation failed: %v", err)
	}
	convID := models.MustRecordIDString(conv.ID)
	if _, err := testDB.QueryAppendMessage(ctx, owner, convID, models.RoleUser, "bye"); err != nil {
		t.Fatalf("QueryAppendMessage failed: %v", err)
	}
	if _, err := testDB.QueryCreateProject(ctx, owner, "Doomed Project", nil); err != nil {
		t.Fatalf("QueryCreateProject failed: %v", err)
	}
	if _, err := testDB.QueryEnsureProfile(ctx, owner, ""); err != nil {
		t.Fatalf("QueryEnsureProfile failed: %v", err)
	}
	if err := testDB.QueryCreateSession(ctx, "doomed-sess", owner, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("QueryCreateSession failed: %v", err)
	}

	other, err := testDB.QueryCreateConversation(ctx, bystander, "Safe Board", nil)
	if err != nil {
		t.Fatalf("QueryCreateConversation failed: %v", err)
	}
	otherID := models.MustRecordIDString(other.ID)
	defer func() {
		_ = testDB.QueryDeleteConversation(ctx, bystander, otherID)
	}()

	if err := admin.DeleteOwner(ctx, owner); err != nil {
		t.Fatalf("DeleteOwner failed: %v", err)
	}

	if convs, _ := testDB.QueryListConversations(ctx, owner); len(convs) != 0 {
		t.Errorf("Expected 0 conversations, got %d", len(convs))
	}
	if projects, _ := testDB.QueryListProjects(ctx, owner); len(projects) != 0 {
		t.Errorf("Expected 0 projects, got %d", len(projects))
	}
	if _, err := testDB.QueryGetProfile(ctx, owner); !errors.Is(err, ErrNotFound) {
		t.Errorf("Profile should be gone, got %v", err)
	}
	if _, err := testDB.QueryGetSession(ctx, "doomed-sess"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Session should be gone, got %v", err)
	}

	// Bystander untouched
	if _, err := testDB.QueryGetConversation(ctx, bystander, otherID); err != nil {
		t.Errorf("Bystander's board should survive: %v", err)
	}
}

// =============================================================================
// LIVE QUERY TESTS
// =============================================================================

func TestSubscribeFiltersOnOwner(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	owner := "owner-live"
	stranger := "owner-live-stranger"

	events, err := testDB.Subscribe(ctx, "conversation", owner)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	// A stranger's change must not come through; the owner's must.
	strangerConv, err := testDB.QueryCreateConversation(context.Background(), stranger, "Stranger Board", nil)
	if err != nil {
		t.Fatalf("QueryCreateConversation failed: %v", err)
	}
	defer func() {
		_ = testDB.QueryDeleteConversation(context.Background(), stranger, models.MustRecordIDString(strangerConv.ID))
	}()

	conv, err := testDB.QueryCreateConversation(context.Background(), owner, "Live Board", nil)
	if err != nil {
		t.Fatalf("QueryCreateConversation failed: %v", err)
	}
	convID := models.MustRecordIDString(conv.ID)
	defer func() {
		_ = testDB.QueryDeleteConversation(context.Background(), owner, convID)
	}()

	select {
	case ev := <-events:
		if ev.Action != ActionCreate {
			t.Errorf("Expected action %q, got %q", ActionCreate, ev.Action)
		}
		if ev.Table != "conversation" {
			t.Errorf("Expected table 'conversation', got %q", ev.Table)
		}
		if ev.Owner() != owner {
			t.Errorf("Expected owner %q, got %q", owner, ev.Owner())
		}
		if ev.RecordIDString() != convID {
			t.Errorf("Expected record id %q, got %q", convID, ev.RecordIDString())
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Timed out waiting for live event")
	}

	// Cancelling the context closes the channel
	cancel()
	select {
	case _, open := <-events:
		if open {
			// Drain any buffered event before the close
			for range events {
			}
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Channel not closed after context cancel")
	}
}
