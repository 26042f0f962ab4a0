// Package concurrent provides sharded counter primitives optimized for the
// many-writers, rare-reader pattern used by the executor's bookkeeping.
//
// Each counter owns a set of cache-line padded slots. A writer binds itself
// to one slot through a handle and mutates only that slot, so hot-path writes
// never contend. A reader enumerates every live slot and folds the results,
// which is comparatively expensive but happens rarely (stats scrapes, epoch
// boundaries).
package concurrent
