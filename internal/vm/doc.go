// Package vm provisions whole guests from DomainTemplate documents.
//
// Create turns a template into running storage plus a defined domain:
// missing volumes that the template sizes are created, the domain XML is
// rendered and defined, and the guest is optionally started and marked for
// autostart. Destroy reverses it: the guest is stopped, undefined together
// with its NVRAM, managed save image and snapshot metadata, and optionally
// the pool volumes its disks reference are deleted.
//
// Error Handling:
//
// Both operations are best-effort on cleanup. If Create fails after the
// domain was defined or volumes were created, it undefines the domain and
// deletes only the volumes that this call created. Cleanup failures are
// logged and never replace the original error.
package vm
