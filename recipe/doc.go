// Package recipe extracts resource declarations from recipe source text.
//
// A recipe is a file of sequential resource declarations:
//
//	package 'nginx' do
//	  action :install
//	end
//
//	template '/etc/nginx/nginx.conf' do
//	  source 'nginx.conf.erb'
//	  notifies :reload, 'service[nginx]', :delayed
//	  only_if 'test -e /etc/nginx'
//	end
//
// The source language is never executed. Declarations are recovered by
// balanced delimiter scanning that understands strings, comments and
// heredocs, so block syntax embedded in literals is never mistaken for
// structure. Property values are extracted as raw text; turning them into
// expressions is the expr package's job.
//
// Two declarations with the same type and name are both returned, in source
// order. The target system executes tasks sequentially, so declaration order
// is part of the extraction contract.
package recipe
