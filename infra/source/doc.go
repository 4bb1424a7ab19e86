// Package source implements schedule providers for the supported grid
// operators. Each provider returns a schedule.RawSchedule and leaves
// validation and slot filtering to schedule.Parser.
//
// Registered types:
//
//	file   YAML or JSON fixture on disk
//	yasno  Yasno planned outages API, optionally with the probable weekly table
//	dtek   DTEK shutdowns page, DisconSchedule.fact and .preset hour maps
package source
