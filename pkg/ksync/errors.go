/*
Copyright 2026 The rcsync Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package ksync

import (
	"errors"
	"fmt"
	"strings"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	apivalidation "k8s.io/apimachinery/pkg/api/validation"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	utilnet "k8s.io/apimachinery/pkg/util/net"
)

// ConfigurationError is returned for kinds or operations missing from the catalog
// and for manifests that can't be reconciled. It is detected before any API call.
type ConfigurationError struct {
	Kind      string
	Operation Operation
	Reason    string
}

func (e *ConfigurationError) Error() string {
	if e.Operation != "" {
		return fmt.Sprintf("%s %s: %s", e.Operation, e.Kind, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

// IsConfigurationError reports whether err or any error it wraps is a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// UnitError records the failure of one namespace or one (namespace, kind) reconciliation unit.
type UnitError struct {
	Namespace string
	Kind      string
	Err       error
}

func (e *UnitError) Error() string {
	if e.Kind == namespaceKind {
		return fmt.Sprintf("Namespace %s reconciliation failed, error: %v", e.Namespace, e.Err)
	}
	return fmt.Sprintf("%s in namespace %s reconciliation failed, error: %v", e.Kind, e.Namespace, e.Err)
}

func (e *UnitError) Unwrap() error {
	return e.Err
}

// UnitErrors returns the unit failures held by an error returned from Sync.
func UnitErrors(err error) []*UnitError {
	var agg utilerrors.Aggregate
	if errors.As(err, &agg) {
		var out []*UnitError
		for _, e := range agg.Errors() {
			out = append(out, UnitErrors(e)...)
		}
		return out
	}

	var ue *UnitError
	if errors.As(err, &ue) {
		return []*UnitError{ue}
	}
	return nil
}

// IsConflict reports whether a patch was rejected because of a stale
// resource version or a change to an immutable field. Other validation
// failures are not conflicts, recreating the object would fail the same way.
func IsConflict(err error) bool {
	return apierrors.IsConflict(err) || isImmutableFieldError(err)
}

func isImmutableFieldError(err error) bool {
	if !apierrors.IsInvalid(err) {
		return false
	}
	var status apierrors.APIStatus
	if !errors.As(err, &status) {
		return false
	}
	details := status.Status().Details
	if details == nil {
		return false
	}
	for _, cause := range details.Causes {
		if strings.Contains(cause.Message, apivalidation.FieldImmutableErrorMsg) {
			return true
		}
	}
	return false
}

// isTransient matches the errors an idempotent read can be retried on.
func isTransient(err error) bool {
	return apierrors.IsServerTimeout(err) ||
		apierrors.IsTimeout(err) ||
		apierrors.IsTooManyRequests(err) ||
		apierrors.IsInternalError(err) ||
		apierrors.IsServiceUnavailable(err) ||
		utilnet.IsConnectionReset(err) ||
		utilnet.IsProbableEOF(err)
}
