// Package platform
// Author: momentics <momentics@gmail.com>
//
// Runtime probe for cache hierarchy, huge-page availability, NUMA
// topology, CPU affinity, and software prefetch hints. Every query
// degrades to a conservative default on failure; nothing in this
// package blocks, retries, or aborts the caller.
package platform
