package store

// Record types for the single table. Attribute names follow the table layout:
// camelCase attributes under a composite PK/SK pair. The same structs are
// rendered to API clients, so json tags mirror the stored attribute names.

// User is a user profile item (USER#<id> / PROFILE).
type User struct {
	PK           string `dynamodbav:"PK" json:"-"`
	SK           string `dynamodbav:"SK" json:"-"`
	UserID       string `dynamodbav:"userId" json:"userId"`
	Email        string `dynamodbav:"email" json:"email"`
	Name         string `dynamodbav:"name" json:"name"`
	PasswordHash string `dynamodbav:"password" json:"-"`
	CreatedAt    string `dynamodbav:"createdAt" json:"createdAt"`
}

// Project is a project metadata item (PROJECT#<id> / METADATA).
type Project struct {
	PK            string `dynamodbav:"PK" json:"-"`
	SK            string `dynamodbav:"SK" json:"-"`
	ProjectID     string `dynamodbav:"projectId" json:"projectId"`
	Name          string `dynamodbav:"name" json:"name"`
	Description   string `dynamodbav:"description" json:"description"`
	Status        string `dynamodbav:"status" json:"status"`
	CreatedBy     string `dynamodbav:"createdBy" json:"createdBy"`
	CreatedByName string `dynamodbav:"createdByName" json:"createdByName"`
	CreatedAt     string `dynamodbav:"createdAt" json:"createdAt"`
	UpdatedAt     string `dynamodbav:"updatedAt" json:"updatedAt"`
	TaskCount     int    `dynamodbav:"taskCount" json:"taskCount"`
	MemberCount   int    `dynamodbav:"memberCount" json:"memberCount"`

	// UserRole is the caller's role, merged in by ListUserProjects. It is
	// never persisted on the metadata item.
	UserRole string `dynamodbav:"-" json:"userRole,omitempty"`
}

// Member is a membership item in the project partition
// (PROJECT#<id> / MEMBER#<userId>).
type Member struct {
	PK       string `dynamodbav:"PK" json:"-"`
	SK       string `dynamodbav:"SK" json:"-"`
	UserID   string `dynamodbav:"userId" json:"userId"`
	UserName string `dynamodbav:"userName" json:"userName"`
	Role     string `dynamodbav:"role" json:"role"`
	JoinedAt string `dynamodbav:"joinedAt" json:"joinedAt"`
}

// Membership is the user-to-project relation item in the user partition
// (USER#<userId> / PROJECT#<projectId>). It is the single authorization
// primitive: every protected project operation point-reads one of these.
type Membership struct {
	PK          string `dynamodbav:"PK" json:"-"`
	SK          string `dynamodbav:"SK" json:"-"`
	ProjectID   string `dynamodbav:"projectId" json:"projectId"`
	ProjectName string `dynamodbav:"projectName" json:"projectName"`
	Role        string `dynamodbav:"role" json:"role"`
	JoinedAt    string `dynamodbav:"joinedAt" json:"joinedAt"`
}

// Task is a task item in the project partition (PROJECT#<pid> / TASK#<tid>).
type Task struct {
	PK          string `dynamodbav:"PK" json:"-"`
	SK          string `dynamodbav:"SK" json:"-"`
	TaskID      string `dynamodbav:"taskId" json:"taskId"`
	ProjectID   string `dynamodbav:"projectId" json:"projectId"`
	Title       string `dynamodbav:"title" json:"title"`
	Description string `dynamodbav:"description" json:"description"`
	Status      string `dynamodbav:"status" json:"status"`
	AssignedTo  string `dynamodbav:"assignedTo" json:"assignedTo"`
	CreatedBy   string `dynamodbav:"createdBy" json:"createdBy"`
	CreatedAt   string `dynamodbav:"createdAt" json:"createdAt"`
	UpdatedAt   string `dynamodbav:"updatedAt" json:"updatedAt"`
}

// Role values for membership records. Exactly one owner exists per project,
// written together with the metadata item.
const (
	RoleOwner  = "owner"
	RoleMember = "member"
)

// Statistics is the derived per-user summary returned by GetUserStatistics.
// TotalTasks sums advisory task counters, so it inherits their drift.
type Statistics struct {
	TotalProjects     int `json:"totalProjects"`
	ActiveProjects    int `json:"activeProjects"`
	CompletedProjects int `json:"completedProjects"`
	TotalTasks        int `json:"totalTasks"`
	OwnedProjects     int `json:"ownedProjects"`
}
