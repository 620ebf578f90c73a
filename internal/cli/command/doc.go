// Package command defines the uicollector command line.
//
// Commands:
//
//	annotate          interactive capture and annotation shell
//	datasets list     dataset files with entry counts
//	datasets show     entries of one dataset
//	upload retry      resend commits whose upload is pending
//	upload list       journaled commits by status
//	upload health     check the sink
//	config show       effective configuration, secrets masked
//	config validate   check the configuration
//	version           build information
//
// Global flags override the configuration file and UICOLLECTOR_*
// environment variables.
package command
