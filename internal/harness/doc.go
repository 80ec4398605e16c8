// Package harness runs scenario files against a fresh in-memory database.
//
// A scenario is a YAML file listing setup statements, steps with
// expected outcomes, and assertions over the final state:
//
//	name: enrollment_join
//	description: merge and nested joins agree
//	join_mode: merge
//	setup:
//	  - create table student (sid int, sname varchar(10))
//	steps:
//	  - statement: select sname from student
//	    expect:
//	      fields: [sname]
//	      rows: []
//	assertions:
//	  - type: table_rows
//	    table: student
//	    count: 0
//
// Each run uses its own store, a sequential statement ID generator, and
// discards log output, so the trace of a scenario is reproducible and can
// be compared against a golden file with RunWithGolden.
package harness
