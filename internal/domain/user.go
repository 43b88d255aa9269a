package domain

import "time"

// Permission names an action gated by the API, e.g. "workers.read".
type Permission string

// PermissionAll grants every permission.
const PermissionAll Permission = "*"

const (
	PermUsersManage     Permission = "users.manage"
	PermSettingsManage  Permission = "settings.manage"
	PermWorkersRead     Permission = "workers.read"
	PermWorkersWrite    Permission = "workers.write"
	PermClientsRead     Permission = "clients.read"
	PermClientsWrite    Permission = "clients.write"
	PermMarketersRead   Permission = "marketers.read"
	PermMarketersWrite  Permission = "marketers.write"
	PermContractsRead   Permission = "contracts.read"
	PermContractsWrite  Permission = "contracts.write"
	PermContractsManage Permission = "contracts.manage"
	PermPayrollRead     Permission = "payroll.read"
	PermPayrollWrite    Permission = "payroll.write"
	PermArchiveManage   Permission = "archive.manage"
	PermBackupsManage   Permission = "backups.manage"
	PermDocuments       Permission = "documents.generate"
	PermDashboard       Permission = "dashboard.view"
)

// JobTitle groups permissions and is assigned to users.
type JobTitle struct {
	ID          string
	Name        string
	Description string
	Permissions []Permission
	IsSystem    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Has reports whether the job title grants p.
func (j *JobTitle) Has(p Permission) bool {
	if j == nil {
		return false
	}
	for _, granted := range j.Permissions {
		if granted == PermissionAll || granted == p {
			return true
		}
	}
	return false
}

// IsAdministrator reports whether the job title carries the wildcard permission.
func (j *JobTitle) IsAdministrator() bool {
	return j != nil && containsPermission(j.Permissions, PermissionAll)
}

func containsPermission(perms []Permission, p Permission) bool {
	for _, candidate := range perms {
		if candidate == p {
			return true
		}
	}
	return false
}

// User is a back-office staff account.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	JobTitleID   string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PermissionInfo describes a permission for listings and seeding.
type PermissionInfo struct {
	Code        Permission `json:"code" yaml:"code"`
	Description string     `json:"description" yaml:"description"`
	Group       string     `json:"group" yaml:"group"`
}
