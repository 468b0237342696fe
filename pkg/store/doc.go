/*
Package store is the parameter store adapter: the only code that reads or
mutates the host's parameter table.

Every operation returns a structured result or a *domain.Error carrying one of
the domain error kinds; host faults, including panics raised by a host bridge,
never escape this package. Every successful mutation ends with a full rescan
of the host instead of patching a cached copy, since the host may reorder
parameters or change derived values as a side effect.
*/
package store
