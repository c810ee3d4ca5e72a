package models

import (
	"sort"
	"strconv"

	"github.com/charlesng35/mediaplatform/internal/permissions"
)

// Member kinds stored in permission_members.
const (
	MemberKindCRSID       = permissions.MemberCRSID
	MemberKindLookupGroup = permissions.MemberLookupGroup
	MemberKindLookupInst  = permissions.MemberLookupInst
)

// Permission is the stored form of a permission record. The two flags live on the
// row itself; crsids, Lookup groups and Lookup institutions are normalised into
// PermissionMember rows so the bulk predicate can be expressed as plain SQL.
type Permission struct {
	BaseModel

	IsPublic   bool `gorm:"not null" json:"is_public"`
	IsSignedIn bool `gorm:"not null" json:"is_signed_in"`

	Members []PermissionMember `gorm:"foreignKey:PermissionID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName overrides the default table name for GORM.
func (Permission) TableName() string {
	return "permissions"
}

// PermissionMember is a single crsid, group or institution granted by a Permission.
type PermissionMember struct {
	ID           uint   `gorm:"primaryKey" json:"-"`
	PermissionID string `gorm:"type:uuid;not null;uniqueIndex:idx_permission_member,priority:1" json:"permission_id"`
	Kind         string `gorm:"size:16;not null;uniqueIndex:idx_permission_member,priority:2;index:idx_permission_member_lookup,priority:1" json:"kind"`
	Value        string `gorm:"size:256;not null;uniqueIndex:idx_permission_member,priority:3;index:idx_permission_member_lookup,priority:2" json:"value"`
}

// TableName overrides the default table name for GORM.
func (PermissionMember) TableName() string {
	return "permission_members"
}

// NewPermission returns a permission which nobody satisfies.
func NewPermission() *Permission {
	return PermissionFromRecord(permissions.Nobody())
}

// PermissionFromRecord builds an unsaved Permission holding the grants of record.
func PermissionFromRecord(record permissions.Record) *Permission {
	perm := &Permission{}
	perm.Apply(record)
	return perm
}

// Apply replaces the flags and members of p with those of record. Members are
// de-duplicated so the unique index on permission_members cannot be violated.
func (p *Permission) Apply(record permissions.Record) {
	p.IsPublic = record.IsPublic
	p.IsSignedIn = record.IsSignedIn

	members := make([]PermissionMember, 0, len(record.CRSIDs)+len(record.LookupGroups)+len(record.LookupInsts))
	seen := make(map[string]struct{})
	add := func(kind, value string) {
		if value == "" {
			return
		}
		key := kind + "\x00" + value
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		members = append(members, PermissionMember{PermissionID: p.ID, Kind: kind, Value: value})
	}

	for _, crsid := range record.CRSIDs {
		add(MemberKindCRSID, crsid)
	}
	for _, group := range record.LookupGroups {
		add(MemberKindLookupGroup, strconv.FormatInt(group, 10))
	}
	for _, inst := range record.LookupInsts {
		add(MemberKindLookupInst, inst)
	}
	p.Members = members
}

// Record converts the stored permission into the evaluator's representation.
// Members with a malformed group id are ignored.
func (p *Permission) Record() permissions.Record {
	record := permissions.Record{
		IsPublic:   p.IsPublic,
		IsSignedIn: p.IsSignedIn,
	}
	for _, member := range p.Members {
		switch member.Kind {
		case MemberKindCRSID:
			record.CRSIDs = append(record.CRSIDs, member.Value)
		case MemberKindLookupGroup:
			id, err := strconv.ParseInt(member.Value, 10, 64)
			if err != nil {
				continue
			}
			record.LookupGroups = append(record.LookupGroups, id)
		case MemberKindLookupInst:
			record.LookupInsts = append(record.LookupInsts, member.Value)
		}
	}
	sort.Strings(record.CRSIDs)
	sort.Slice(record.LookupGroups, func(i, j int) bool { return record.LookupGroups[i] < record.LookupGroups[j] })
	sort.Strings(record.LookupInsts)
	return record
}
