// Package ui contains the Bubble Tea program that powers the terminal viewer.
// The Bubble Tea event loop is the designated thread: every dispatcher
// activation and every surface draw happens inside Model.Update.
//
// Message flow:
//   - The viewer hands work to the designated thread through Host, which
//     wraps each task in a designatedMsg and sends it to the program.
//     Update runs the task, then refreshes the entity table if a new
//     document was bound.
//   - Key presses are routed through a typed handler registry. Actions that
//     touch the filesystem or start loads run as commands on the
//     internal/ui/command bus and report back with a command.Result.
//   - With -watch, a backend.Watcher streams document changes; each change
//     becomes a background load of the new content.
//
// State ownership:
//   - internal/ui/state.List holds the entity-type table, its fuzzy filter
//     and its cursor.
//   - The raw content viewport is filled by PublishContent, which the
//     dispatcher calls for SetStepFileContent messages.
//   - The frame preview is re-sampled from the raster only when the surface
//     has drawn since the last View.
package ui
