package discord

import "github.com/bwmarrin/discordgo"

// Names of the context menu commands
const (
	MessageWordCount = "Message Word Count"
	UserStats        = "User Stats"
)

var (
	manageGuild = int64(discordgo.PermissionManageServer)
	noDM        = false
)

var textChannels = []discordgo.ChannelType{
	discordgo.ChannelTypeGuildText,
	discordgo.ChannelTypeGuildNews,
}

// Commands describes every command supported by the app
func Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		countCommand(),
		leaderboardCommand("words", "Commands to view the current word count stats of the server.",
			"Shows the word count leaderboard of the server", "The channel to show the leaderboard of members in"),
		leaderboardCommand("message", "Message commands",
			"Shows the message leaderboard", "The channel to show the leaderboard for"),
		leaderboardCommand("attachment", "Attachment commands",
			"Shows the attachment leaderboard", "The channel to show the leaderboard for"),
		keywordCommand(),
		{
			Name:         "analyze_chat",
			Type:         discordgo.ChatApplicationCommand,
			Description:  "Analyze chat history from an HTML file",
			DMPermission: &noDM,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "file",
					Type:        discordgo.ApplicationCommandOptionAttachment,
					Description: "The HTML file containing chat history",
					Required:    true,
				},
				{
					Name:        "start_date",
					Type:        discordgo.ApplicationCommandOptionString,
					Description: "Start date for analysis (DD-MM-YYYY)",
				},
				{
					Name:        "end_date",
					Type:        discordgo.ApplicationCommandOptionString,
					Description: "End date for analysis (DD-MM-YYYY)",
				},
			},
		},
		{
			Name:        "help",
			Type:        discordgo.ChatApplicationCommand,
			Description: "Show help for slash commands",
		},
		{
			Name:         MessageWordCount,
			Type:         discordgo.MessageApplicationCommand,
			DMPermission: &noDM,
		},
		{
			Name:         UserStats,
			Type:         discordgo.UserApplicationCommand,
			DMPermission: &noDM,
		},
	}
}

func channelOption(description string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Name:         "channel",
		Type:         discordgo.ApplicationCommandOptionChannel,
		Description:  description,
		ChannelTypes: textChannels,
		Required:     required,
	}
}

func choices(names ...string) []*discordgo.ApplicationCommandOptionChoice {
	out := make([]*discordgo.ApplicationCommandOptionChoice, len(names))
	for i, n := range names {
		out[i] = &discordgo.ApplicationCommandOptionChoice{Name: n, Value: n}
	}
	return out
}

func countCommand() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:                     "count",
		Type:                     discordgo.ChatApplicationCommand,
		Description:              "Commands to manage the settings of the bot for the server",
		DefaultMemberPermissions: &manageGuild,
		DMPermission:             &noDM,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "server",
				Type:        discordgo.ApplicationCommandOptionSubCommandGroup,
				Description: "Commands to enable or disable the recording of the word count for the entire server.",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        "set",
						Type:        discordgo.ApplicationCommandOptionSubCommand,
						Description: "Enable/disable the recording of the word count of every channel in the server",
						Options: []*discordgo.ApplicationCommandOption{
							{
								Name:        "action",
								Type:        discordgo.ApplicationCommandOptionString,
								Description: "Enable or disable the bot to record the word count of every channel in the server",
								Required:    true,
								Choices:     choices("Enable", "Disable"),
							},
						},
					},
					{
						Name:        "settings",
						Type:        discordgo.ApplicationCommandOptionSubCommand,
						Description: "Shows the current settings for the server",
						Options: []*discordgo.ApplicationCommandOption{
							{
								Name:        "make_private",
								Type:        discordgo.ApplicationCommandOptionString,
								Description: "Only show the settings to you",
								Choices:     choices("Yes"),
							},
						},
					},
				},
			},
			{
				Name:        "channel",
				Type:        discordgo.ApplicationCommandOptionSubCommandGroup,
				Description: "Commands to add/remove channels for recording word count.",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        "set",
						Type:        discordgo.ApplicationCommandOptionSubCommand,
						Description: "Set channels to record the word count in. Can't be used if count is enabled in the entire server.",
						Options:     []*discordgo.ApplicationCommandOption{channelOption("The channel to enable word count in", true)},
					},
					{
						Name:        "remove",
						Type:        discordgo.ApplicationCommandOptionSubCommand,
						Description: "Remove channels from recording the word count. Can't be used if count is enabled in entire server.",
						Options:     []*discordgo.ApplicationCommandOption{channelOption("The channel to remove from counting", true)},
					},
					{
						Name:        "ignore",
						Type:        discordgo.ApplicationCommandOptionSubCommand,
						Description: "Ignores a channel from word counting when set to whole server",
						Options: []*discordgo.ApplicationCommandOption{
							{
								Name:        "action",
								Type:        discordgo.ApplicationCommandOptionString,
								Description: "add or remove channel",
								Required:    true,
								Choices:     choices("Add", "Remove"),
							},
							channelOption("The channel to ignore", true),
						},
					},
				},
			},
			{
				Name:        "reset",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "Resets the word count of a user (for a single channel or every channel) or for whole server",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        "user",
						Type:        discordgo.ApplicationCommandOptionUser,
						Description: "The user to reset the word count of",
					},
					channelOption("The channel to reset the word count of user in", false),
				},
			},
		},
	}
}

func leaderboardCommand(name, description, lbDescription, channelDescription string) *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:         name,
		Type:         discordgo.ChatApplicationCommand,
		Description:  description,
		DMPermission: &noDM,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "leaderboard",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: lbDescription,
				Options:     []*discordgo.ApplicationCommandOption{channelOption(channelDescription, false)},
			},
		},
	}
}

func keywordCommand() *discordgo.ApplicationCommand {
	keywordOption := func(description string) []*discordgo.ApplicationCommandOption {
		return []*discordgo.ApplicationCommandOption{
			{
				Name:        "keyword",
				Type:        discordgo.ApplicationCommandOptionString,
				Description: description,
				Required:    true,
			},
		}
	}

	return &discordgo.ApplicationCommand{
		Name:         "keyword",
		Type:         discordgo.ChatApplicationCommand,
		Description:  "Keyword commands",
		DMPermission: &noDM,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "add",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "Add a keyword to the server (only recorded in word count channels)",
				Options:     keywordOption("The keyword to add"),
			},
			{
				Name:        "remove",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "Remove a keyword from the server",
				Options:     keywordOption("The keyword to remove"),
			},
			{
				Name:        "leaderboard",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "View the keyword leaderboard",
				Options:     []*discordgo.ApplicationCommandOption{channelOption("The channel to show the leaderboard for", false)},
			},
			{
				Name:        "list",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "View the keywords in the server",
			},
		},
	}
}
