// Package domain contains pure, dependency-free domain models and types
// for the quiz scoring and recommendation engine.
package domain

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"time"
)

// Key represents a type-safe generic key for accessing values in State.
// The type parameter T gives compile-time type safety when getting and
// setting values, so callers never need runtime type assertions.
type Key[T any] struct{ name string }

// NewKey creates a new Key with the specified name and type.
func NewKey[T any](name string) Key[T] {
	return Key[T]{name: name}
}

// Name returns the string identifier of the key.
func (k Key[T]) Name() string { return k.name }

// Predefined state keys shared by the evaluation pipeline and the
// session wizard.
var (
	// KeyAnswers stores the selected option id per question id.
	KeyAnswers = Key[map[int]string]{"answers"}

	// KeyAcademicRecord stores the self-reported subject scores.
	KeyAcademicRecord = Key[AcademicRecord]{"academic_record"}

	// KeyCategoryScores stores the tallied Category Score Map.
	KeyCategoryScores = Key[CategoryScores]{"category_scores"}

	// KeyDomainBlend stores the ranked per-domain blended scores.
	KeyDomainBlend = Key[[]DomainBlend]{"domain_blend"}

	// KeyRecommendation stores the resolved recommendation.
	KeyRecommendation = Key[Recommendation]{"recommendation"}

	// Session keys used by the step-wise wizard.

	// KeyStage stores the current wizard stage.
	KeyStage = Key[Stage]{"session.stage"}

	// KeyStudent stores the participant details collected up front.
	KeyStudent = Key[Student]{"session.student"}

	// KeySectionIndex stores the index of the question section on screen.
	KeySectionIndex = Key[int]{"session.section_index"}

	// KeyResult stores the computed results once a report was generated.
	KeyResult = Key[Result]{"session.result"}

	// Execution context keys.

	// KeySessionID identifies the session or batch run being evaluated.
	KeySessionID = Key[string]{"execution.session_id"}

	// KeyVariant stores the recommendation variant being evaluated.
	KeyVariant = Key[Variant]{"execution.variant"}
)

// deepCopyValue copies slices, maps, pointers and the exported fields of
// structs so that values stored in State cannot be mutated through aliases.
func deepCopyValue(value any) any {
	if value == nil {
		return nil
	}

	if val, ok := value.(time.Time); ok {
		return val
	}

	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Slice:
		if v.IsNil() {
			return value
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(copyReflect(v.Index(i)))
		}
		return out.Interface()

	case reflect.Map:
		if v.IsNil() {
			return value
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), copyReflect(iter.Value()))
		}
		return out.Interface()

	case reflect.Ptr:
		if v.IsNil() {
			return value
		}
		out := reflect.New(v.Elem().Type())
		out.Elem().Set(copyReflect(v.Elem()))
		return out.Interface()

	case reflect.Struct:
		// Start from a shallow copy so unexported fields survive, then
		// replace every exported field with its own deep copy.
		out := reflect.New(v.Type()).Elem()
		out.Set(v)
		for i := 0; i < v.NumField(); i++ {
			if out.Field(i).CanSet() {
				out.Field(i).Set(copyReflect(v.Field(i)))
			}
		}
		return out.Interface()

	default:
		return value
	}
}

// copyReflect deep copies a reflect.Value while preserving its static type,
// which matters for interface-typed slice elements and nil values.
func copyReflect(v reflect.Value) reflect.Value {
	if !v.IsValid() {
		return v
	}
	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return v
		}
		out := reflect.New(v.Type()).Elem()
		out.Set(reflect.ValueOf(deepCopyValue(v.Interface())))
		return out
	}
	if !v.CanInterface() {
		return v
	}
	copied := reflect.ValueOf(deepCopyValue(v.Interface()))
	if !copied.IsValid() {
		return reflect.Zero(v.Type())
	}
	return copied.Convert(v.Type())
}

// State is an immutable bag of typed values that flows through the
// evaluation pipeline and between wizard steps. Every update returns a new
// State; the receiver is never modified.
type State struct {
	data map[string]any
}

// NewState creates a new empty State.
func NewState() State {
	return State{data: make(map[string]any)}
}

// Get retrieves a deep copy of the value stored under key. The boolean is
// false when the key is absent or holds a value of a different type.
//
// Example:
//
//	scores, ok := Get(state, KeyCategoryScores)
//	if !ok {
//	    // scorer has not run yet
//	}
func Get[T any](s State, key Key[T]) (T, bool) {
	var zero T
	value, exists := s.data[key.name]
	if !exists {
		return zero, false
	}

	val, ok := deepCopyValue(value).(T)
	return val, ok
}

// Has reports whether the State holds any value under key.
func Has[T any](s State, key Key[T]) bool {
	_, ok := s.data[key.name]
	return ok
}

// With returns a new State with key set to value.
//
// Example:
//
//	next := With(state, KeyStage, StageDetails)
func With[T any](s State, key Key[T], value T) State {
	newData := maps.Clone(s.data)
	if newData == nil {
		newData = make(map[string]any)
	}
	newData[key.name] = deepCopyValue(value)
	return State{data: newData}
}

// Without returns a new State with key removed.
func Without[T any](s State, key Key[T]) State {
	if _, ok := s.data[key.name]; !ok {
		return s
	}
	newData := maps.Clone(s.data)
	delete(newData, key.name)
	return State{data: newData}
}

// WithMultiple returns a new State with every entry of updates applied in a
// single clone.
func (s State) WithMultiple(updates map[string]any) State {
	newData := maps.Clone(s.data)
	if newData == nil {
		newData = make(map[string]any, len(updates))
	}
	for k, v := range updates {
		newData[k] = deepCopyValue(v)
	}
	return State{data: newData}
}

// Keys returns the sorted key names present in the State.
func (s State) Keys() []string {
	keys := slices.Collect(maps.Keys(s.data))
	slices.Sort(keys)
	return keys
}

// String returns a string representation of the State for debugging purposes.
func (s State) String() string {
	return fmt.Sprintf("State%v", s.data)
}

// ExecutionContext identifies a single evaluation run.
type ExecutionContext struct {
	SessionID string
	Variant   Variant
}

// WithExecutionContext returns a new State carrying the run metadata.
func (s State) WithExecutionContext(ec ExecutionContext) State {
	return s.WithMultiple(map[string]any{
		KeySessionID.name: ec.SessionID,
		KeyVariant.name:   ec.Variant,
	})
}

// GetExecutionContext extracts run metadata from the State. The boolean is
// false unless both fields are present.
func (s State) GetExecutionContext() (ExecutionContext, bool) {
	id, ok1 := Get(s, KeySessionID)
	variant, ok2 := Get(s, KeyVariant)
	if !ok1 || !ok2 {
		return ExecutionContext{}, false
	}
	return ExecutionContext{SessionID: id, Variant: variant}, true
}
