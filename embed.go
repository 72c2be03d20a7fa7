package main

import "github.com/bwmarrin/discordgo"

// Embed is a wrapper around discordgo.MessageEmbed for fluent building
type Embed struct {
	*discordgo.MessageEmbed
}

// NewEmbed returns a new embed object
func NewEmbed() *Embed {
	return &Embed{&discordgo.MessageEmbed{}}
}

// SetTitle sets the title of the embed
func (e *Embed) SetTitle(name string) *Embed {
	e.Title = name
	return e
}

// SetDescription sets the description of the embed
func (e *Embed) SetDescription(description string) *Embed {
	e.Description = description
	return e
}

// AddField adds a field to the embed
func (e *Embed) AddField(name, value string) *Embed {
	e.Fields = append(e.Fields, &discordgo.MessageEmbedField{
		Name:  name,
		Value: value,
	})

	return e
}

// SetColor sets the color of the embed
func (e *Embed) SetColor(clr int) *Embed {
	e.Color = clr
	return e
}
