package core

import glog "github.com/goliatone/go-logger/glog"

var (
	_ PostContent = ThreadsPost{}
	_ PostContent = InstagramPost{}
	_ PostContent = TikTokPost{}
	_ PostContent = FacebookPost{}
	_ PostContent = GooglePost{}
	_ PostContent = YouTubePost{}
	_ PostContent = LinkedInPost{}
	_ PostContent = TwitterPost{}

	_ error           = (*ErrorResponse)(nil)
	_ RawConfigLoader = MapConfigLoader{}
	_ ConfigProvider  = (*CfgxConfigProvider)(nil)
	_ OptionsResolver = GoOptionsResolver{}

	_ Logger         = glog.Nop()
	_ LoggerProvider = glog.ProviderFromLogger(glog.Nop())
)
