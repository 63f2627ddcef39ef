// Package graphquery materializes story views over the relationship graph.
//
// Two views are offered: the temporal view walks FOLLOWS edges as a timeline
// ordered by the source item's publish time, and the causal view collects
// CAUSES edges as cause-effect pairs. Both join edges against the document
// store and silently drop edges whose endpoints no longer resolve.
package graphquery
