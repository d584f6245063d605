package importer

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/cronograma/internal/domain"
)

// ValidateImportSchema checks the import schema for errors before conversion.
// Returns a slice of all validation errors found.
func ValidateImportSchema(schema *ImportSchema) []error {
	var errs []error

	errs = append(errs, validateProject(&schema.Project)...)

	parents := make(map[string]string) // ref -> parent ref ("" for roots)
	errs = append(errs, validateNodes(schema.Nodes, parents)...)

	errs = append(errs, validateDependencies(schema.Dependencies, parents)...)

	return errs
}

func validateProject(p *ProjectImport) []error {
	var errs []error

	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, fmt.Errorf("project.name is required"))
	}
	probe := domain.Project{ShortID: strings.ToUpper(strings.TrimSpace(p.ShortID))}
	if err := probe.ValidateShortID(); err != nil {
		errs = append(errs, fmt.Errorf("project.short_id: %w", err))
	}
	if p.StartDate == "" {
		errs = append(errs, fmt.Errorf("project.start_date is required"))
	} else if _, err := time.Parse(domain.DateLayout, p.StartDate); err != nil {
		errs = append(errs, fmt.Errorf("project.start_date: invalid date format %q (expected YYYY-MM-DD)", p.StartDate))
	}

	return errs
}

func validateNodes(nodes []NodeImport, parents map[string]string) []error {
	var errs []error

	hasChildren := make(map[string]bool)
	for _, n := range nodes {
		if n.ParentRef != nil {
			hasChildren[*n.ParentRef] = true
		}
	}

	for i, n := range nodes {
		prefix := fmt.Sprintf("nodes[%d]", i)

		parentRef := ""
		if n.ParentRef != nil && *n.ParentRef != "" {
			parentRef = *n.ParentRef
			if _, ok := parents[parentRef]; !ok {
				errs = append(errs, fmt.Errorf("%s.parent_ref: ref %q not found (must appear earlier in nodes list)", prefix, parentRef))
			}
		}

		if n.Ref == "" {
			errs = append(errs, fmt.Errorf("%s.ref is required", prefix))
		} else if _, dup := parents[n.Ref]; dup {
			errs = append(errs, fmt.Errorf("%s.ref: duplicate ref %q", prefix, n.Ref))
		} else {
			parents[n.Ref] = parentRef
		}

		if strings.TrimSpace(n.Name) == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		}
		if n.Order < 0 {
			errs = append(errs, fmt.Errorf("%s.order must be non-negative", prefix))
		}
		if n.Weight != nil && *n.Weight < 0 {
			errs = append(errs, fmt.Errorf("%s.weight must be non-negative", prefix))
		}
		if n.PercentComplete < 0 || n.PercentComplete > 100 {
			errs = append(errs, fmt.Errorf("%s.percent_complete %.2f outside [0,100]", prefix, n.PercentComplete))
		}
		if n.DurationDays < 0 {
			errs = append(errs, fmt.Errorf("%s.duration_days must be non-negative", prefix))
		}
		if n.Quantity < 0 || n.QuantityDone < 0 || n.PlannedCost < 0 {
			errs = append(errs, fmt.Errorf("%s: quantities and cost must be non-negative", prefix))
		}
		errs = append(errs, validateOptionalDate(prefix+".planned_start", n.PlannedStart)...)

		if len(n.Subtasks) > 0 && n.Ref != "" && hasChildren[n.Ref] {
			errs = append(errs, fmt.Errorf("%s: subtasks are only allowed on leaf nodes", prefix))
		}
		for j, st := range n.Subtasks {
			errs = append(errs, validateSubtask(fmt.Sprintf("%s.subtasks[%d]", prefix, j), st)...)
		}
	}

	return errs
}

func validateSubtask(prefix string, st SubtaskImport) []error {
	var errs []error

	if strings.TrimSpace(st.Name) == "" {
		errs = append(errs, fmt.Errorf("%s.name is required", prefix))
	}
	if st.Weight != nil && *st.Weight < 0 {
		errs = append(errs, fmt.Errorf("%s.weight must be non-negative", prefix))
	}
	if st.Quantity < 0 || st.QuantityDone < 0 {
		errs = append(errs, fmt.Errorf("%s: quantities must be non-negative", prefix))
	}
	if st.Status != "" && !domain.ValidSubtaskStatuses[st.Status] {
		errs = append(errs, fmt.Errorf("%s.status: invalid value %q", prefix, st.Status))
	}

	return errs
}

func validateDependencies(deps []DependencyImport, parents map[string]string) []error {
	var errs []error
	seen := make(map[[2]string]bool)

	for i, d := range deps {
		prefix := fmt.Sprintf("dependencies[%d]", i)

		if d.PredecessorRef == "" {
			errs = append(errs, fmt.Errorf("%s.predecessor_ref is required", prefix))
		} else if _, ok := parents[d.PredecessorRef]; !ok {
			errs = append(errs, fmt.Errorf("%s.predecessor_ref: ref %q not found in nodes", prefix, d.PredecessorRef))
		}

		if d.SuccessorRef == "" {
			errs = append(errs, fmt.Errorf("%s.successor_ref is required", prefix))
		} else if _, ok := parents[d.SuccessorRef]; !ok {
			errs = append(errs, fmt.Errorf("%s.successor_ref: ref %q not found in nodes", prefix, d.SuccessorRef))
		}

		if d.Type != "" && !domain.DependencyType(strings.ToUpper(d.Type)).Valid() {
			errs = append(errs, fmt.Errorf("%s.type: invalid value %q (expected FS, SS, FF or SF)", prefix, d.Type))
		}

		if d.PredecessorRef == "" || d.SuccessorRef == "" {
			continue
		}
		if d.PredecessorRef == d.SuccessorRef {
			errs = append(errs, fmt.Errorf("%s: self-dependency (predecessor_ref == successor_ref == %q)", prefix, d.PredecessorRef))
			continue
		}
		key := [2]string{d.PredecessorRef, d.SuccessorRef}
		if seen[key] {
			errs = append(errs, fmt.Errorf("%s: duplicate dependency %q -> %q", prefix, d.PredecessorRef, d.SuccessorRef))
		}
		seen[key] = true
		if isAncestor(parents, d.PredecessorRef, d.SuccessorRef) || isAncestor(parents, d.SuccessorRef, d.PredecessorRef) {
			errs = append(errs, fmt.Errorf("%s: %q and %q are in the same branch", prefix, d.PredecessorRef, d.SuccessorRef))
		}
	}

	// Check for circular dependencies
	if len(deps) > 1 {
		errs = append(errs, detectCycles(deps)...)
	}

	return errs
}

// isAncestor reports whether ancestor is a strict ancestor of ref.
func isAncestor(parents map[string]string, ancestor, ref string) bool {
	seen := make(map[string]bool)
	for p := parents[ref]; p != "" && !seen[p]; p = parents[p] {
		if p == ancestor {
			return true
		}
		seen[p] = true
	}
	return false
}

func detectCycles(deps []DependencyImport) []error {
	graph := make(map[string][]string)
	var order []string
	known := make(map[string]bool)
	add := func(ref string) {
		if !known[ref] {
			known[ref] = true
			order = append(order, ref)
		}
	}
	for _, d := range deps {
		if d.PredecessorRef != "" && d.SuccessorRef != "" && d.PredecessorRef != d.SuccessorRef {
			graph[d.PredecessorRef] = append(graph[d.PredecessorRef], d.SuccessorRef)
			add(d.PredecessorRef)
			add(d.SuccessorRef)
		}
	}

	const (
		white = 0 // unvisited
		gray  = 1 // in current path
		black = 2 // fully processed
	)

	color := make(map[string]int)
	var errs []error

	var visit func(node string) bool
	visit = func(node string) bool {
		color[node] = gray
		for _, neighbor := range graph[node] {
			if color[neighbor] == gray {
				errs = append(errs, fmt.Errorf("circular dependency detected involving %q and %q", node, neighbor))
				return true
			}
			if color[neighbor] == white {
				if visit(neighbor) {
					return true
				}
			}
		}
		color[node] = black
		return false
	}

	for _, node := range order {
		if color[node] == white {
			visit(node)
		}
	}

	return errs
}

func validateOptionalDate(field string, dateStr *string) []error {
	if dateStr == nil || *dateStr == "" {
		return nil
	}
	if _, err := time.Parse(domain.DateLayout, *dateStr); err != nil {
		return []error{fmt.Errorf("%s: invalid date format %q (expected YYYY-MM-DD)", field, *dateStr)}
	}
	return nil
}
