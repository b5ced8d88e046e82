package importer

const merchantFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:g="http://base.google.com/ns/1.0">
	<channel>
		<title>Gadget Garage</title>
		<link>https://gadgets.example.org</link>
		<description><![CDATA[<p>Refurbished <b>gadgets</b> &amp; parts</p>]]></description>
		<item>
			<title>Mechanical Keyboard</title>
			<link>https://gadgets.example.org/p/kb-1</link>
			<description><![CDATA[<p>Hot-swappable   switches</p>]]></description>
			<guid>kb-1</guid>
			<g:price>89.90 USD</g:price>
		</item>
		<item>
			<title>USB-C Hub</title>
			<link>https://gadgets.example.org/p/hub-7</link>
			<description>Seven ports</description>
			<guid>hub-7</guid>
			<g:price>35 EUR</g:price>
			<g:sale_price>29.50 EUR</g:sale_price>
		</item>
		<item>
			<title>Mystery Box</title>
			<link>https://gadgets.example.org/p/box</link>
			<description>No price listed</description>
		</item>
		<item>
			<title></title>
			<guid>untitled</guid>
		</item>
		<item>
			<title>Mechanical Keyboard (dup)</title>
			<guid>kb-1</guid>
		</item>
	</channel>
</rss>`
