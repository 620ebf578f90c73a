// Package repl implements the line-oriented annotation shell.
//
// Each input line drives one session operation:
//
//	capture                 grab a new screenshot
//	again                   annotate another region on the last screenshot
//	click X Y               place or move a point (screen pixels)
//	drag X1 Y1 X2 Y2        drag a point (screen pixels)
//	set I X Y               overwrite cube point I (normalized)
//	delete I                remove cube point I
//	center X Y              overwrite the center point (normalized)
//	undo | redo
//	zoom in|out|reset       change the zoom level
//	pan DX DY               move the view
//	desc TEXT               describe the cube, then the center point
//	confirm                 accept the center or a duplicate description
//	retry [uploads]         resubmit failed drafts or pending uploads
//	cancel | status | help | quit
//
// Commit outcomes arrive asynchronously and are printed through Notify.
package repl
