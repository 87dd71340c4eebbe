/*
taxonomy.go - Leave type registration and classification

PURPOSE:
  Every leave type is classified once: paid or unpaid, and, for paid types,
  whether it draws on a tracked balance pool. Only Annual Leave (annual pool)
  and Medical Leave (medical pool) are tracked; every other paid category is
  unlimited. The two "Unpaid ..." categories are always zero-pay.

HOW IT WORKS:
  1. The statutory taxonomy is registered on init()
  2. Deployments may register extra (untracked) categories at startup
  3. Classify() is the single lookup used by approval, edit and deletion

USAGE:
  info, err := leave.Classify("Annual Leave")
  if info.Tracked() { ... draw on info.Pool ... }

SEE ALSO:
  - days.go: Day counting and paid/unpaid allocation
  - service.go: Approval state machine
*/
package leave

import (
	"sort"
	"strings"
	"sync"

	"github.com/warp/payroll-engine/generic"
)

const (
	Annual          generic.LeaveType = "Annual Leave"
	Medical         generic.LeaveType = "Medical Leave"
	Hospitalisation generic.LeaveType = "Hospitalisation Leave"
	Maternity       generic.LeaveType = "Maternity Leave"
	Paternity       generic.LeaveType = "Paternity Leave"
	SharedParental  generic.LeaveType = "Shared Parental Leave"
	Childcare       generic.LeaveType = "Childcare Leave"
	Compassionate   generic.LeaveType = "Compassionate Leave"
	Marriage        generic.LeaveType = "Marriage Leave"
	NationalService generic.LeaveType = "National Service Leave"
	Unpaid          generic.LeaveType = "Unpaid Leave"
	UnpaidInfant    generic.LeaveType = "Unpaid Infant Care Leave"
)

// TypeInfo classifies one leave type.
type TypeInfo struct {
	Type generic.LeaveType `json:"type"`
	Paid bool              `json:"paid"`
	// Pool is empty for untracked types.
	Pool generic.Pool `json:"pool,omitempty"`
}

// Tracked is true when approval draws on a balance.
func (t TypeInfo) Tracked() bool { return t.Paid && t.Pool != "" }

// =============================================================================
// TYPE REGISTRY
// =============================================================================

var (
	typeRegistry = make(map[string]TypeInfo)
	registryMu   sync.RWMutex
)

func init() {
	Register(TypeInfo{Type: Annual, Paid: true, Pool: generic.PoolAnnual})
	Register(TypeInfo{Type: Medical, Paid: true, Pool: generic.PoolMedical})
	for _, t := range []generic.LeaveType{
		Hospitalisation, Maternity, Paternity, SharedParental,
		Childcare, Compassionate, Marriage, NationalService,
	} {
		Register(TypeInfo{Type: t, Paid: true})
	}
	Register(TypeInfo{Type: Unpaid, Paid: false})
	Register(TypeInfo{Type: UnpaidInfant, Paid: false})
}

func registryKey(t generic.LeaveType) string {
	return strings.ToLower(strings.TrimSpace(string(t)))
}

// Register adds or replaces a leave type. Lookups are case-insensitive.
func Register(info TypeInfo) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if !info.Paid {
		info.Pool = ""
	}
	typeRegistry[registryKey(info.Type)] = info
}

// Classify returns the registered classification of t.
func Classify(t generic.LeaveType) (TypeInfo, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	info, ok := typeRegistry[registryKey(t)]
	if !ok {
		return TypeInfo{}, generic.InvalidInput("unknown leave type %q", t)
	}
	return info, nil
}

// Types returns every registered type, paid types first, then by name.
func Types() []TypeInfo {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]TypeInfo, 0, len(typeRegistry))
	for _, info := range typeRegistry {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Paid != out[j].Paid {
			return out[i].Paid
		}
		return out[i].Type < out[j].Type
	})
	return out
}
